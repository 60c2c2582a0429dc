package control

import (
	"context"
	"errors"
	"log"
	"net/http"
	"sync"

	"github.com/s0rg/toggle-ctl/pkg/client"
	"github.com/s0rg/toggle-ctl/pkg/toggle"
)

const (
	attrHref   = "data-href"
	attrMethod = "data-method"
)

var (
	// ErrBound signals a second Bind for the same element.
	ErrBound = errors.New("element already bound")
	// ErrPending signals a trigger while a transition is in flight.
	ErrPending = errors.New("transition in flight")

	errNoHref = errors.New("no href for element")

	regMu sync.Mutex
	reg   = make(map[Element]*Toggle)
)

type (
	// Element is the ui control being synced.
	Element interface {
		Checked() bool
		SetChecked(bool)
		SetEnabled(bool)
		Attr(string) string
		OnClick(func()) (remove func())
	}

	// Client issues the persistence call.
	Client interface {
		Request(ctx context.Context, method, url string, form map[string]string) (*client.Response, error)
	}

	// Confirmer presents a modal prompt, proceed == false aborts.
	Confirmer interface {
		Confirm(ctx context.Context, msg string) (proceed bool, err error)
	}

	// Reporter is the sink for user-visible feedback.
	Reporter interface {
		Error(err error)
		Messages(where string, msgs []client.Message)
	}
)

// Config holds binding options, zero value works for elements
// carrying data-href: state change is sent as {"enabled": "1"|"0"}
// via POST, errors and messages go to the log.
type Config struct {
	// OmitData skips the boolean in the request body.
	OmitData bool
	Method   toggle.Option
	Href     toggle.Option
	Confirm  toggle.ConfirmFunc
	OnChange func(enabled bool, resp *client.Response)

	Client    Client
	Confirmer Confirmer
	Reporter  Reporter
}

// Toggle is a bound control, it owns the click listener and the
// ui-to-network transition for its element.
type Toggle struct {
	el     Element
	st     *toggle.State
	cfg    Config
	remove func()
}

// Bind wires element clicks to the transition protocol, second
// bind for the same element fails with ErrBound.
func Bind(el Element, cfg Config) (*Toggle, error) {
	regMu.Lock()
	defer regMu.Unlock()

	if _, ok := reg[el]; ok {
		return nil, ErrBound
	}

	if cfg.Client == nil {
		cfg.Client = client.New(nil)
	}

	if cfg.Reporter == nil {
		cfg.Reporter = logReporter{}
	}

	t := &Toggle{
		el:  el,
		st:  toggle.NewState(el.Checked()),
		cfg: cfg,
	}

	if _, _, err := t.endpoint(); err != nil {
		return nil, err
	}

	t.remove = el.OnClick(t.click)
	reg[el] = t

	return t, nil
}

// Unbind removes the click listener, the element can be bound again.
func (t *Toggle) Unbind() {
	regMu.Lock()
	defer regMu.Unlock()

	if t.remove != nil {
		t.remove()
		t.remove = nil
	}

	delete(reg, t.el)
}

// Checked returns last displayed value.
func (t *Toggle) Checked() bool {
	return t.st.Checked()
}

// Pending reports request-in-flight.
func (t *Toggle) Pending() bool {
	return t.st.Pending()
}

func (t *Toggle) endpoint() (method, url string, err error) {
	if url = resolve(t.cfg.Href, t.el, attrHref, ""); url == "" {
		return "", "", errNoHref
	}

	method = resolve(t.cfg.Method, t.el, attrMethod, http.MethodPost)

	return method, url, nil
}

func (t *Toggle) click() {
	_ = t.Trigger(context.Background())
}

// Trigger runs one transition: confirm (if configured), flip
// optimistically, persist, then accept the server value or revert.
func (t *Toggle) Trigger(ctx context.Context) (err error) {
	method, url, err := t.endpoint()
	if err != nil {
		return err
	}

	prev, ok := t.st.Acquire()
	if !ok {
		return ErrPending
	}

	next := !prev

	if msg, need := t.confirmFor(next); need {
		var proceed bool

		if proceed, err = t.cfg.Confirmer.Confirm(ctx, msg); err != nil || !proceed {
			t.st.Finish(prev)

			// declined is a no-op, not an error
			return err
		}
	}

	t.st.Set(next)
	t.el.SetChecked(next)
	t.el.SetEnabled(false)

	// re-enable holds on every path out of the request
	defer t.el.SetEnabled(true)

	var form map[string]string

	if !t.cfg.OmitData {
		form = map[string]string{"enabled": boolFlag(next)}
	}

	resp, err := t.cfg.Client.Request(ctx, method, url, form)
	if err != nil {
		t.st.Finish(prev)
		t.el.SetChecked(prev)
		t.cfg.Reporter.Error(err)

		return err
	}

	t.st.Finish(resp.Enabled)
	t.el.SetChecked(resp.Enabled)

	if t.cfg.OnChange != nil {
		t.cfg.OnChange(resp.Enabled, resp)
	}

	if len(resp.Messages) > 0 {
		t.cfg.Reporter.Messages(url, resp.Messages)
	}

	return nil
}

func (t *Toggle) confirmFor(next bool) (msg string, need bool) {
	if t.cfg.Confirm == nil || t.cfg.Confirmer == nil {
		return "", false
	}

	return t.cfg.Confirm(next)
}

func resolve(o toggle.Option, el Element, attr, fallback string) string {
	if v, ok := o.Value(); ok {
		return v
	}

	if v := el.Attr(attr); v != "" {
		return v
	}

	return fallback
}

func boolFlag(v bool) string {
	if v {
		return "1"
	}

	return "0"
}

type logReporter struct{}

func (logReporter) Error(err error) {
	log.Println("control: error:", err)
}

func (logReporter) Messages(where string, msgs []client.Message) {
	for _, m := range msgs {
		log.Println("control:", where, m.Kind+":", m.Text)
	}
}
