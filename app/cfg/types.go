package cfg

import "time"

type Cfg struct {
	// Server configuration
	Port    string
	BaseUrl string

	// Feed fetching configuration
	ProxyURL       string
	RequestTimeout time.Duration
	PollInterval   time.Duration
	WorkerCount    int
	FeedsFile      string

	// Application metadata
	Locale    string
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}
