package checkout

// Message is a user-visible notification.
type Message struct {
	Level Level  `json:"level"`
	Text  string `json:"text"`
}

// Recorder collects what the orchestrator wants the browser to do during
// one request: show messages, open the widget, navigate. WidgetReady is
// reported by the browser.
type Recorder struct {
	WidgetReady bool

	Messages    []Message
	RedirectURL string
	Widget      *WidgetConfig
}

func (r *Recorder) Notify(level Level, text string) {
	r.Messages = append(r.Messages, Message{Level: level, Text: text})
}

func (r *Recorder) Redirect(url string) {
	r.RedirectURL = url
}

func (r *Recorder) Available() bool { return r.WidgetReady }

func (r *Recorder) Open(cfg WidgetConfig) error {
	r.Widget = &cfg
	return nil
}
