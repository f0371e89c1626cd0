package feed

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/samber/lo"
	"gopkg.in/yaml.v3"
)

// LoadSubscriptions reads the seed subscriptions file and returns its URLs in
// file order with blanks and repeats removed. A missing file yields no URLs.
func LoadSubscriptions(path string) ([]string, error) {
	if path == "" {
		return nil, nil
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		slog.Warn("Subscriptions file not found", "path", path)
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var subscriptions Subscriptions
	if err := yaml.Unmarshal(data, &subscriptions); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	urls := lo.FilterMap(subscriptions.Feeds, func(s Subscription, _ int) (string, bool) {
		url := strings.TrimSpace(s.URL)
		return url, url != ""
	})
	urls = lo.Uniq(urls)

	slog.Debug("Subscriptions loaded", "path", path, "count", len(urls))

	return urls, nil
}
