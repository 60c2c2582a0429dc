//nolint:testpackage
package control

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/s0rg/toggle-ctl/pkg/client"
	"github.com/s0rg/toggle-ctl/pkg/toggle"
)

var errNetwork = errors.New("network down")

type fakeElement struct {
	checked  bool
	enabled  bool
	attrs    map[string]string
	listener func()
}

func newFakeElement(attrs map[string]string) *fakeElement {
	return &fakeElement{enabled: true, attrs: attrs}
}

func (e *fakeElement) Checked() bool     { return e.checked }
func (e *fakeElement) SetChecked(v bool) { e.checked = v }
func (e *fakeElement) SetEnabled(v bool) { e.enabled = v }
func (e *fakeElement) Attr(k string) string {
	return e.attrs[k]
}

func (e *fakeElement) OnClick(fn func()) (remove func()) {
	e.listener = fn

	return func() { e.listener = nil }
}

func (e *fakeElement) Click() {
	if e.listener != nil {
		e.listener()
	}
}

type call struct {
	method string
	url    string
	form   map[string]string
}

type fakeClient struct {
	resp   *client.Response
	err    error
	calls  []call
	during func()
}

func (c *fakeClient) Request(
	_ context.Context,
	method, url string,
	form map[string]string,
) (*client.Response, error) {
	c.calls = append(c.calls, call{method: method, url: url, form: form})

	if c.during != nil {
		c.during()
	}

	if c.err != nil {
		return nil, c.err
	}

	return c.resp, nil
}

type fakeConfirmer struct {
	proceed bool
	asked   []string
}

func (c *fakeConfirmer) Confirm(_ context.Context, msg string) (bool, error) {
	c.asked = append(c.asked, msg)

	return c.proceed, nil
}

type fakeReporter struct {
	errs []error
	msgs int
}

func (r *fakeReporter) Error(err error) { r.errs = append(r.errs, err) }
func (r *fakeReporter) Messages(_ string, msgs []client.Message) {
	r.msgs += len(msgs)
}

func TestClickIssuesSingleRequest(t *testing.T) {
	el := newFakeElement(map[string]string{attrHref: "/toggle"})
	fc := &fakeClient{resp: &client.Response{Enabled: true}}

	tg, err := Bind(el, Config{Client: fc})
	if err != nil {
		t.Fatal("bind:", err)
	}

	defer tg.Unbind()

	const clicks = 3

	for i := 0; i < clicks; i++ {
		el.Click()
	}

	if len(fc.calls) != clicks {
		t.Fatalf("calls = %d (want: %d)", len(fc.calls), clicks)
	}
}

func TestDisabledWhilePending(t *testing.T) {
	el := newFakeElement(map[string]string{attrHref: "/toggle"})

	fc := &fakeClient{resp: &client.Response{Enabled: true}}

	var tg *Toggle

	fc.during = func() {
		if el.enabled {
			t.Fatal("element enabled mid-flight")
		}

		if !tg.Pending() {
			t.Fatal("not pending mid-flight")
		}

		// re-entrant trigger must be rejected, not queued
		if err := tg.Trigger(context.Background()); !errors.Is(err, ErrPending) {
			t.Fatalf("re-entrant trigger: err == %v", err)
		}
	}

	tg, err := Bind(el, Config{Client: fc})
	if err != nil {
		t.Fatal("bind:", err)
	}

	defer tg.Unbind()

	el.Click()

	if len(fc.calls) != 1 {
		t.Fatalf("calls = %d (want: 1)", len(fc.calls))
	}

	if !el.enabled || tg.Pending() {
		t.Fatal("control not released after completion")
	}
}

func TestConfirmDeclined(t *testing.T) {
	el := newFakeElement(map[string]string{attrHref: "/toggle"})
	fc := &fakeClient{resp: &client.Response{Enabled: true}}
	cf := &fakeConfirmer{proceed: false}

	tg, err := Bind(el, Config{
		Client:    fc,
		Confirmer: cf,
		Confirm: func(next bool) (string, bool) {
			return "sure?", true
		},
	})
	if err != nil {
		t.Fatal("bind:", err)
	}

	defer tg.Unbind()

	if err = tg.Trigger(context.Background()); err != nil {
		t.Fatal("trigger:", err)
	}

	if len(cf.asked) != 1 {
		t.Fatalf("asked = %d (want: 1)", len(cf.asked))
	}

	if len(fc.calls) != 0 {
		t.Fatal("request issued after decline")
	}

	if el.checked || tg.Checked() || tg.Pending() {
		t.Fatal("state changed after decline")
	}

	if !el.enabled {
		t.Fatal("element disabled after decline")
	}
}

func TestConfirmAccepted(t *testing.T) {
	el := newFakeElement(map[string]string{attrHref: "/toggle"})
	fc := &fakeClient{resp: &client.Response{Enabled: true}}
	cf := &fakeConfirmer{proceed: true}

	tg, err := Bind(el, Config{
		Client:    fc,
		Confirmer: cf,
		Confirm: func(next bool) (string, bool) {
			if next {
				return "enable?", true
			}

			return "", false
		},
	})
	if err != nil {
		t.Fatal("bind:", err)
	}

	defer tg.Unbind()

	if err = tg.Trigger(context.Background()); err != nil {
		t.Fatal("trigger:", err)
	}

	if len(fc.calls) != 1 {
		t.Fatalf("calls = %d (want: 1)", len(fc.calls))
	}

	if cf.asked[0] != "enable?" {
		t.Fatalf("prompt = %q", cf.asked[0])
	}
}

func TestSuccessAppliesServerValue(t *testing.T) {
	el := newFakeElement(map[string]string{attrHref: "/toggle"})
	rp := &fakeReporter{}

	fc := &fakeClient{resp: &client.Response{
		Enabled:  true,
		Messages: []client.Message{{Kind: "positive", Text: "done"}},
	}}

	var (
		notified  bool
		notifyVal bool
	)

	tg, err := Bind(el, Config{
		Client:   fc,
		Reporter: rp,
		OnChange: func(enabled bool, resp *client.Response) {
			notified, notifyVal = true, enabled
		},
	})
	if err != nil {
		t.Fatal("bind:", err)
	}

	defer tg.Unbind()

	if err = tg.Trigger(context.Background()); err != nil {
		t.Fatal("trigger:", err)
	}

	if !tg.Checked() || !el.checked {
		t.Fatal("checked != true after success")
	}

	if tg.Pending() {
		t.Fatal("pending after success")
	}

	if !notified || !notifyVal {
		t.Fatal("change notification missing")
	}

	if rp.msgs != 1 {
		t.Fatalf("messages = %d (want: 1)", rp.msgs)
	}
}

func TestServerOverridesOptimisticGuess(t *testing.T) {
	el := newFakeElement(map[string]string{attrHref: "/toggle"})

	// server-side validation keeps the control off
	fc := &fakeClient{resp: &client.Response{Enabled: false}}

	tg, err := Bind(el, Config{Client: fc})
	if err != nil {
		t.Fatal("bind:", err)
	}

	defer tg.Unbind()

	if err = tg.Trigger(context.Background()); err != nil {
		t.Fatal("trigger:", err)
	}

	if tg.Checked() || el.checked {
		t.Fatal("optimistic value survived authoritative response")
	}
}

func TestFailureReverts(t *testing.T) {
	el := newFakeElement(map[string]string{attrHref: "/toggle"})
	rp := &fakeReporter{}
	fc := &fakeClient{err: errNetwork}

	tg, err := Bind(el, Config{Client: fc, Reporter: rp})
	if err != nil {
		t.Fatal("bind:", err)
	}

	defer tg.Unbind()

	if err = tg.Trigger(context.Background()); !errors.Is(err, errNetwork) {
		t.Fatalf("trigger: err == %v", err)
	}

	if tg.Checked() || el.checked {
		t.Fatal("checked not reverted")
	}

	if tg.Pending() {
		t.Fatal("pending after failure")
	}

	if !el.enabled {
		t.Fatal("element disabled after failure")
	}

	if len(rp.errs) != 1 {
		t.Fatalf("errors reported = %d (want: 1)", len(rp.errs))
	}
}

func TestDoubleBind(t *testing.T) {
	el := newFakeElement(map[string]string{attrHref: "/toggle"})
	fc := &fakeClient{resp: &client.Response{Enabled: true}}

	tg, err := Bind(el, Config{Client: fc})
	if err != nil {
		t.Fatal("bind:", err)
	}

	if _, err = Bind(el, Config{Client: fc}); !errors.Is(err, ErrBound) {
		t.Fatalf("second bind: err == %v", err)
	}

	tg.Unbind()

	el.Click()

	if len(fc.calls) != 0 {
		t.Fatal("listener survived unbind")
	}

	if tg, err = Bind(el, Config{Client: fc}); err != nil {
		t.Fatal("rebind after unbind:", err)
	}

	tg.Unbind()
}

func TestBindWithoutHref(t *testing.T) {
	el := newFakeElement(nil)

	if _, err := Bind(el, Config{Client: &fakeClient{}}); !errors.Is(err, errNoHref) {
		t.Fatalf("bind: err == %v", err)
	}
}

func TestEndpointResolution(t *testing.T) {
	var table = []struct {
		name         string
		method       toggle.Option
		href         toggle.Option
		attrs        map[string]string
		methodExpect string
		urlExpect    string
	}{
		{
			"resolvers win",
			toggle.Resolver(func() string { return http.MethodDelete }),
			toggle.Resolver(func() string { return "/fn" }),
			map[string]string{attrMethod: http.MethodPut, attrHref: "/attr"},
			http.MethodDelete, "/fn",
		},
		{
			"statics beat attrs",
			toggle.Static(http.MethodPut),
			toggle.Static("/static"),
			map[string]string{attrMethod: http.MethodDelete, attrHref: "/attr"},
			http.MethodPut, "/static",
		},
		{
			"attrs beat defaults",
			toggle.Option{},
			toggle.Option{},
			map[string]string{attrMethod: http.MethodPut, attrHref: "/attr"},
			http.MethodPut, "/attr",
		},
		{
			"default method",
			toggle.Option{},
			toggle.Option{},
			map[string]string{attrHref: "/attr"},
			http.MethodPost, "/attr",
		},
	}

	for _, s := range table {
		el := newFakeElement(s.attrs)
		fc := &fakeClient{resp: &client.Response{Enabled: true}}

		tg, err := Bind(el, Config{
			Client: fc,
			Method: s.method,
			Href:   s.href,
		})
		if err != nil {
			t.Fatalf("%s: bind: %v", s.name, err)
		}

		if err = tg.Trigger(context.Background()); err != nil {
			t.Fatalf("%s: trigger: %v", s.name, err)
		}

		c := fc.calls[0]

		if c.method != s.methodExpect {
			t.Fatalf("%s: method = %q (want: %q)", s.name, c.method, s.methodExpect)
		}

		if c.url != s.urlExpect {
			t.Fatalf("%s: url = %q (want: %q)", s.name, c.url, s.urlExpect)
		}

		tg.Unbind()
	}
}

func TestPayload(t *testing.T) {
	var table = []struct {
		name     string
		omit     bool
		checked  bool
		formFlag string
	}{
		{"send on", false, false, "1"},
		{"send off", false, true, "0"},
		{"omitted", true, false, ""},
	}

	for _, s := range table {
		el := newFakeElement(map[string]string{attrHref: "/toggle"})
		el.checked = s.checked

		fc := &fakeClient{resp: &client.Response{Enabled: !s.checked}}

		tg, err := Bind(el, Config{Client: fc, OmitData: s.omit})
		if err != nil {
			t.Fatalf("%s: bind: %v", s.name, err)
		}

		if err = tg.Trigger(context.Background()); err != nil {
			t.Fatalf("%s: trigger: %v", s.name, err)
		}

		form := fc.calls[0].form

		switch {
		case s.omit:
			if form != nil {
				t.Fatalf("%s: form = %v (want: nil)", s.name, form)
			}
		default:
			if form["enabled"] != s.formFlag {
				t.Fatalf("%s: flag = %q (want: %q)", s.name, form["enabled"], s.formFlag)
			}
		}

		tg.Unbind()
	}
}
