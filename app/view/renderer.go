package view

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"log/slog"

	"github.com/samber/lo"

	"github.com/lysyi3m/rss-reader/app/locale"
	"github.com/lysyi3m/rss-reader/app/state"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	TargetForm     = "form"
	TargetFeedback = "feedback"
	TargetFeeds    = "feeds"
	TargetPosts    = "posts"
	TargetModal    = "modal"
)

// targets lists the fragments to redraw when a store path changes.
var targets = map[state.Path][]string{
	state.PathForm:           {TargetForm},
	state.PathLoadingProcess: {TargetForm, TargetFeedback},
	state.PathFeeds:          {TargetFeeds},
	state.PathPosts:          {TargetPosts},
	state.PathWatchedPosts:   {TargetPosts},
	state.PathModalPostID:    {TargetModal},
}

type Renderer struct {
	templates   *template.Template
	tr          *locale.Translator
	broadcaster *Broadcaster
}

func NewRenderer(tr *locale.Translator, broadcaster *Broadcaster) (*Renderer, error) {
	templates, err := template.New("").
		Funcs(template.FuncMap{"t": tr.T}).
		ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	return &Renderer{
		templates:   templates,
		tr:          tr,
		broadcaster: broadcaster,
	}, nil
}

// Bind subscribes the renderer to every store path. Each change is rendered
// and broadcast to connected clients.
func (r *Renderer) Bind(store *state.Store) {
	for _, path := range state.Paths {
		store.Subscribe(path, r.handle)
	}
}

func (r *Renderer) handle(path state.Path, snapshot state.State) {
	fragments, err := r.Fragments(path, snapshot)
	if err != nil {
		slog.Error("Failed to render fragment", "path", path, "error", err)
		return
	}

	for _, fragment := range fragments {
		r.broadcaster.Broadcast(fragment)
	}
}

// Page renders the whole document for the first paint.
func (r *Renderer) Page(w io.Writer, snapshot state.State) error {
	return r.templates.ExecuteTemplate(w, "page", r.viewData(snapshot))
}

func (r *Renderer) Fragments(path state.Path, snapshot state.State) ([]Fragment, error) {
	names, ok := targets[path]
	if !ok {
		return nil, fmt.Errorf("no fragment for path %q", path)
	}

	data := r.viewData(snapshot)
	fragments := make([]Fragment, 0, len(names))
	for _, name := range names {
		var buf bytes.Buffer
		if err := r.templates.ExecuteTemplate(&buf, name, data); err != nil {
			return nil, fmt.Errorf("failed to render %s: %w", name, err)
		}
		fragments = append(fragments, Fragment{Target: name, HTML: buf.String()})
	}

	return fragments, nil
}

type feedbackView struct {
	Text  string
	Class string
}

type postView struct {
	state.Post
	Watched bool
}

type viewData struct {
	Lang     string
	Form     state.Form
	Loading  bool
	Reset    bool
	Feedback feedbackView
	Feeds    []state.Feed
	Posts    []postView
	Modal    *state.Post
}

func (r *Renderer) viewData(snapshot state.State) viewData {
	data := viewData{
		Lang:     r.tr.Lang(),
		Form:     snapshot.Form,
		Loading:  snapshot.LoadingProcess.Status == state.StatusLoading,
		Reset:    snapshot.LoadingProcess.Status == state.StatusSuccess,
		Feedback: r.feedback(snapshot.LoadingProcess),
		Feeds:    snapshot.Feeds,
		Posts: lo.Map(snapshot.Posts, func(p state.Post, _ int) postView {
			return postView{Post: p, Watched: snapshot.WatchedPosts[p.ID]}
		}),
	}

	if snapshot.Modal.PostID != "" {
		if post, ok := lo.Find(snapshot.Posts, func(p state.Post) bool { return p.ID == snapshot.Modal.PostID }); ok {
			data.Modal = &post
		}
	}

	return data
}

func (r *Renderer) feedback(process state.LoadingProcess) feedbackView {
	switch process.Status {
	case state.StatusLoading:
		return feedbackView{Text: r.tr.T("feedback.loading"), Class: "text-muted"}
	case state.StatusSuccess:
		return feedbackView{Text: r.tr.T("feedback.success"), Class: "text-success"}
	case state.StatusFailed:
		text := r.tr.Feedback(process.Error)
		if process.FeedURL != "" {
			text = fmt.Sprintf("%s %s: %s", r.tr.T("feedback.pollFailed"), process.FeedURL, text)
		}
		return feedbackView{Text: text, Class: "text-danger"}
	default:
		return feedbackView{}
	}
}
