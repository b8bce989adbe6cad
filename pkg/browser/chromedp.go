package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/google/uuid"

	appErrors "github.com/noah-isme/samvidha-portal-api/pkg/errors"
)

// Options configures a headless Chrome session.
type Options struct {
	ChromeBin      string
	Headless       bool
	StepTimeout    time.Duration
	StartupTimeout time.Duration
}

type chromeSession struct {
	id          string
	ctx         context.Context
	cancel      context.CancelFunc
	cancelAlloc context.CancelFunc
	stepTimeout time.Duration
}

// NewChromeSession launches a dedicated headless Chrome instance and returns
// it as a poolable Session. Construction failures (missing binary, crash on
// startup) surface here rather than on first use.
func NewChromeSession(opts Options) (Session, error) {
	if opts.StepTimeout <= 0 {
		opts.StepTimeout = 10 * time.Second
	}
	if opts.StartupTimeout <= 0 {
		opts.StartupTimeout = 30 * time.Second
	}

	allocOpts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	allocOpts = append(allocOpts,
		chromedp.Flag("headless", opts.Headless),
		chromedp.NoSandbox,
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.WindowSize(1920, 1080),
	)
	if opts.ChromeBin != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ChromeBin))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), allocOpts...)
	tabCtx, cancelTab := chromedp.NewContext(allocCtx)

	startCtx, cancelStart := context.WithTimeout(tabCtx, opts.StartupTimeout)
	defer cancelStart()
	if err := chromedp.Run(startCtx); err != nil {
		cancelTab()
		cancelAlloc()
		return nil, fmt.Errorf("start chrome: %w", err)
	}

	return &chromeSession{
		id:          uuid.NewString(),
		ctx:         tabCtx,
		cancel:      cancelTab,
		cancelAlloc: cancelAlloc,
		stepTimeout: opts.StepTimeout,
	}, nil
}

func (s *chromeSession) ID() string { return s.id }

// stepContext bounds one driver operation by the step timeout, tightened
// further if the caller's context carries an earlier deadline.
func (s *chromeSession) stepContext(ctx context.Context) (context.Context, context.CancelFunc) {
	timeout := s.stepTimeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}
	return context.WithTimeout(s.ctx, timeout)
}

func (s *chromeSession) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := s.stepContext(ctx)
	defer cancel()
	return chromedp.Run(runCtx, actions...)
}

func (s *chromeSession) Navigate(ctx context.Context, url string) error {
	return s.run(ctx, chromedp.Navigate(url))
}

func (s *chromeSession) WaitVisible(ctx context.Context, sel Selector) error {
	err := s.run(ctx, chromedp.WaitVisible(sel.Query, queryOption(sel)))
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrElementNotFound.Code, appErrors.ErrElementNotFound.Status,
			fmt.Sprintf("element %q did not become visible", sel.Query))
	}
	return nil
}

func (s *chromeSession) Find(ctx context.Context, sel Selector) (Element, error) {
	nodes, err := s.nodes(ctx, sel)
	if err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return nil, appErrors.Clone(appErrors.ErrElementNotFound, fmt.Sprintf("no element matches %q", sel.Query))
	}
	return &chromeElement{sess: s, node: nodes[0]}, nil
}

func (s *chromeSession) FindAll(ctx context.Context, sel Selector) ([]Element, error) {
	nodes, err := s.nodes(ctx, sel)
	if err != nil {
		return nil, err
	}
	elements := make([]Element, 0, len(nodes))
	for _, node := range nodes {
		elements = append(elements, &chromeElement{sess: s, node: node})
	}
	return elements, nil
}

func (s *chromeSession) nodes(ctx context.Context, sel Selector) ([]*cdp.Node, error) {
	var nodes []*cdp.Node
	err := s.run(ctx, chromedp.Nodes(sel.Query, &nodes, queryOption(sel), chromedp.AtLeast(0)))
	if err != nil {
		return nil, fmt.Errorf("query %q: %w", sel.Query, err)
	}
	return nodes, nil
}

func (s *chromeSession) Eval(ctx context.Context, expr string, out interface{}) error {
	return s.run(ctx, chromedp.Evaluate(expr, out))
}

func (s *chromeSession) CurrentURL(ctx context.Context) (string, error) {
	var url string
	if err := s.run(ctx, chromedp.Location(&url)); err != nil {
		return "", err
	}
	return url, nil
}

func (s *chromeSession) PageSource(ctx context.Context) (string, error) {
	var source string
	if err := s.run(ctx, chromedp.OuterHTML("html", &source, chromedp.ByQuery)); err != nil {
		return "", err
	}
	return source, nil
}

// Reset clears cookies and parks the tab on a blank page so the next
// borrower starts unauthenticated.
func (s *chromeSession) Reset(ctx context.Context) error {
	return s.run(ctx,
		network.ClearBrowserCookies(),
		chromedp.Navigate("about:blank"),
	)
}

func (s *chromeSession) Close() {
	s.cancel()
	s.cancelAlloc()
}

func queryOption(sel Selector) chromedp.QueryOption {
	if sel.Kind == StrategySearch {
		return chromedp.BySearch
	}
	return chromedp.ByQueryAll
}

type chromeElement struct {
	sess *chromeSession
	node *cdp.Node
}

func (e *chromeElement) ids() []cdp.NodeID {
	return []cdp.NodeID{e.node.NodeID}
}

func (e *chromeElement) Text(ctx context.Context) (string, error) {
	var text string
	err := e.sess.run(ctx, chromedp.Text(e.ids(), &text, chromedp.ByNodeID))
	return text, err
}

func (e *chromeElement) SendKeys(ctx context.Context, keys string) error {
	return e.sess.run(ctx, chromedp.SendKeys(e.ids(), keys, chromedp.ByNodeID))
}

func (e *chromeElement) Click(ctx context.Context) error {
	return e.sess.run(ctx,
		chromedp.ScrollIntoView(e.ids(), chromedp.ByNodeID),
		chromedp.Click(e.ids(), chromedp.ByNodeID),
	)
}

func (e *chromeElement) Clear(ctx context.Context) error {
	return e.sess.run(ctx, chromedp.Clear(e.ids(), chromedp.ByNodeID))
}

func (e *chromeElement) SetValue(ctx context.Context, value string) error {
	return e.sess.run(ctx, chromedp.SetValue(e.ids(), value, chromedp.ByNodeID))
}

func (e *chromeElement) Value(ctx context.Context) (string, error) {
	var value string
	err := e.sess.run(ctx, chromedp.Value(e.ids(), &value, chromedp.ByNodeID))
	return value, err
}

func (e *chromeElement) Attribute(ctx context.Context, name string) (string, bool, error) {
	var value string
	var ok bool
	err := e.sess.run(ctx, chromedp.AttributeValue(e.ids(), name, &value, &ok, chromedp.ByNodeID))
	return value, ok, err
}

func (e *chromeElement) Visible(ctx context.Context) (bool, error) {
	var width float64
	err := e.sess.run(ctx, chromedp.JavascriptAttribute(e.ids(), "offsetWidth", &width, chromedp.ByNodeID))
	return width > 0, err
}

func (e *chromeElement) Enabled(ctx context.Context) (bool, error) {
	var disabled bool
	err := e.sess.run(ctx, chromedp.JavascriptAttribute(e.ids(), "disabled", &disabled, chromedp.ByNodeID))
	return !disabled, err
}

func (e *chromeElement) UploadFile(ctx context.Context, path string) error {
	return e.sess.run(ctx, chromedp.SetUploadFiles(e.ids(), []string{path}, chromedp.ByNodeID))
}

func (e *chromeElement) FindAll(ctx context.Context, sel Selector) ([]Element, error) {
	var nodes []*cdp.Node
	err := e.sess.run(ctx, chromedp.Nodes(sel.Query, &nodes,
		chromedp.ByQueryAll, chromedp.FromNode(e.node), chromedp.AtLeast(0)))
	if err != nil {
		return nil, fmt.Errorf("query %q under node: %w", sel.Query, err)
	}
	elements := make([]Element, 0, len(nodes))
	for _, node := range nodes {
		elements = append(elements, &chromeElement{sess: e.sess, node: node})
	}
	return elements, nil
}
