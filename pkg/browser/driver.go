package browser

import (
	"context"
	"fmt"
)

// Strategy selects how a Selector query is interpreted.
type Strategy int

const (
	// StrategyCSS resolves the query as a CSS selector.
	StrategyCSS Strategy = iota
	// StrategySearch resolves the query with the DevTools search API,
	// which accepts XPath and plain-text queries.
	StrategySearch
)

// Selector locates elements on the current page.
type Selector struct {
	Query string
	Kind  Strategy
}

func (s Selector) String() string { return s.Query }

// ByID targets an element by its id attribute.
func ByID(id string) Selector {
	return Selector{Query: "#" + id, Kind: StrategyCSS}
}

// ByCSS targets elements with a raw CSS selector.
func ByCSS(query string) Selector {
	return Selector{Query: query, Kind: StrategyCSS}
}

// ByTag targets all elements of the given tag name.
func ByTag(tag string) Selector {
	return Selector{Query: tag, Kind: StrategyCSS}
}

// ByLinkText targets an anchor by its visible text.
func ByLinkText(text string) Selector {
	return Selector{
		Query: fmt.Sprintf(`//a[normalize-space(text())=%q]`, text),
		Kind:  StrategySearch,
	}
}

// Element is one located page element. All operations address the live
// element; a navigation invalidates outstanding handles.
type Element interface {
	Text(ctx context.Context) (string, error)
	SendKeys(ctx context.Context, keys string) error
	Click(ctx context.Context) error
	Clear(ctx context.Context) error
	SetValue(ctx context.Context, value string) error
	Value(ctx context.Context) (string, error)
	Attribute(ctx context.Context, name string) (string, bool, error)
	Visible(ctx context.Context) (bool, error)
	Enabled(ctx context.Context) (bool, error)
	UploadFile(ctx context.Context, path string) error
	FindAll(ctx context.Context, sel Selector) ([]Element, error)
}

// Driver is the capability surface the navigator consumes. The production
// implementation drives a headless Chrome tab; tests substitute a scripted
// fake honouring the same contract.
type Driver interface {
	Navigate(ctx context.Context, url string) error
	// WaitVisible blocks until an element matching sel is visible or the
	// context deadline expires.
	WaitVisible(ctx context.Context, sel Selector) error
	Find(ctx context.Context, sel Selector) (Element, error)
	FindAll(ctx context.Context, sel Selector) ([]Element, error)
	Eval(ctx context.Context, expr string, out interface{}) error
	CurrentURL(ctx context.Context) (string, error)
	PageSource(ctx context.Context) (string, error)
}

// Session is a pooled browser instance: a Driver plus lifecycle hooks the
// pool uses to recycle or destroy it.
type Session interface {
	Driver
	ID() string
	// Reset returns the session to a neutral state (blank page, no
	// cookies) so the next borrower cannot observe the previous one.
	Reset(ctx context.Context) error
	Close()
}
