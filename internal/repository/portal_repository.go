package repository

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/samvidha-portal-api/internal/models"
	"github.com/noah-isme/samvidha-portal-api/pkg/browser"
	appErrors "github.com/noah-isme/samvidha-portal-api/pkg/errors"
)

const (
	loggedInURLMarker = "home"
	loginWaitTimeout  = 15 * time.Second
	loginPollInterval = 250 * time.Millisecond
)

var weekNumberRe = regexp.MustCompile(`(?i)Week-?(\d+)`)

// PortalRepositoryParams configures the navigator.
type PortalRepositoryParams struct {
	BaseURL       string
	AttendanceURL string
	LabRecordURL  string
	Logger        *zap.Logger
}

// PortalRepository drives the external portal through a browser session. It
// owns only the page interactions; session lifecycle belongs to the pool and
// result interpretation belongs to the services.
type PortalRepository struct {
	baseURL       string
	attendanceURL string
	labRecordURL  string
	logger        *zap.Logger
	now           func() time.Time
}

// NewPortalRepository constructs the navigator.
func NewPortalRepository(params PortalRepositoryParams) *PortalRepository {
	if params.Logger == nil {
		params.Logger = zap.NewNop()
	}
	return &PortalRepository{
		baseURL:       params.BaseURL,
		attendanceURL: params.AttendanceURL,
		labRecordURL:  params.LabRecordURL,
		logger:        params.Logger,
		now:           time.Now,
	}
}

// Login authenticates against the portal login page. The well-known field
// IDs are tried first; when the portal serves a variant layout the first two
// inputs on the page are assumed to be username and password. Success is
// judged by the post-submit URL, which lands on the home page only for valid
// credentials.
func (r *PortalRepository) Login(ctx context.Context, drv browser.Driver, creds models.Credentials) error {
	if err := drv.Navigate(ctx, r.baseURL); err != nil {
		return appErrors.Wrap(err, appErrors.ErrScrapeFailed.Code,
			appErrors.ErrScrapeFailed.Status, "failed to open the portal login page")
	}

	if err := r.fillLoginForm(ctx, drv, creds); err != nil {
		return err
	}

	if !r.waitForURLMarker(ctx, drv, loggedInURLMarker) {
		return appErrors.ErrInvalidCredentials
	}
	r.logger.Debug("portal login succeeded", zap.String("username", creds.Username))
	return nil
}

func (r *PortalRepository) fillLoginForm(ctx context.Context, drv browser.Driver, creds models.Credentials) error {
	if err := drv.WaitVisible(ctx, browser.ByID("txt_uname")); err == nil {
		username, uerr := drv.Find(ctx, browser.ByID("txt_uname"))
		password, perr := drv.Find(ctx, browser.ByID("txt_pwd"))
		submit, serr := drv.Find(ctx, browser.ByID("but_submit"))
		if uerr == nil && perr == nil && serr == nil {
			if err := username.SendKeys(ctx, creds.Username); err != nil {
				return elementFailure("username field", err)
			}
			if err := password.SendKeys(ctx, creds.Password); err != nil {
				return elementFailure("password field", err)
			}
			if err := submit.Click(ctx); err != nil {
				return elementFailure("login button", err)
			}
			return nil
		}
	}

	// Variant layout: take the first two inputs positionally.
	inputs, err := drv.FindAll(ctx, browser.ByTag("input"))
	if err != nil || len(inputs) < 2 {
		return appErrors.Wrap(err, appErrors.ErrElementNotFound.Code,
			appErrors.ErrElementNotFound.Status, "could not find login input fields")
	}
	if err := inputs[0].SendKeys(ctx, creds.Username); err != nil {
		return elementFailure("username field", err)
	}
	if err := inputs[1].SendKeys(ctx, creds.Password); err != nil {
		return elementFailure("password field", err)
	}

	if submit, err := drv.Find(ctx, browser.ByID("but_submit")); err == nil {
		return submit.Click(ctx)
	}
	submit, err := drv.Find(ctx, browser.ByCSS("input[type='submit']"))
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrElementNotFound.Code,
			appErrors.ErrElementNotFound.Status, "could not find login input fields")
	}
	return submit.Click(ctx)
}

// waitForURLMarker polls the current URL until it contains marker. The
// portal redirects asynchronously after submit, so a single immediate check
// would race the navigation.
func (r *PortalRepository) waitForURLMarker(ctx context.Context, drv browser.Driver, marker string) bool {
	deadline := r.now().Add(loginWaitTimeout)
	for {
		if url, err := drv.CurrentURL(ctx); err == nil && strings.Contains(url, marker) {
			return true
		}
		if r.now().After(deadline) {
			return false
		}
		select {
		case <-ctx.Done():
			return false
		case <-time.After(loginPollInterval):
		}
	}
}

// FetchAttendanceRows opens the attendance view and returns the text of
// every table row. The menu link is preferred over a direct navigation
// because it keeps the portal's own session state consistent.
func (r *PortalRepository) FetchAttendanceRows(ctx context.Context, drv browser.Driver) ([]string, error) {
	opened := false
	if link, err := drv.Find(ctx, browser.ByLinkText("Course Content")); err == nil {
		if err := link.Click(ctx); err == nil {
			opened = true
		}
	}
	if !opened {
		if err := drv.Navigate(ctx, r.attendanceURL); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrScrapeFailed.Code,
				appErrors.ErrScrapeFailed.Status, "failed to open the attendance page")
		}
	}

	// Best effort; an empty page is caught below either way.
	_ = drv.WaitVisible(ctx, browser.ByTag("tr"))

	rows, err := drv.FindAll(ctx, browser.ByTag("tr"))
	if err != nil || len(rows) == 0 {
		return nil, appErrors.ErrNoData
	}

	texts := make([]string, 0, len(rows))
	for _, row := range rows {
		text, err := row.Text(ctx)
		if err != nil {
			continue
		}
		texts = append(texts, text)
	}
	if len(texts) == 0 {
		return nil, appErrors.ErrNoData
	}
	return texts, nil
}

// OpenLabRecordPage navigates to the lab-record form.
func (r *PortalRepository) OpenLabRecordPage(ctx context.Context, drv browser.Driver) error {
	if err := drv.Navigate(ctx, r.labRecordURL); err != nil {
		return appErrors.Wrap(err, appErrors.ErrScrapeFailed.Code,
			appErrors.ErrScrapeFailed.Status, "failed to open the lab record page")
	}
	_ = drv.WaitVisible(ctx, browser.ByTag("select"))
	return nil
}

// ListLabSubjects reads the subject dropdown on the lab-record page.
// Placeholder entries ("-- Select --" and friends) are filtered out.
func (r *PortalRepository) ListLabSubjects(ctx context.Context, drv browser.Driver) ([]models.LabOption, error) {
	if err := r.OpenLabRecordPage(ctx, drv); err != nil {
		return nil, err
	}

	dropdown, err := drv.Find(ctx, browser.ByTag("select"))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrElementNotFound.Code,
			appErrors.ErrElementNotFound.Status, "could not find the lab subject dropdown")
	}
	options, err := dropdown.FindAll(ctx, browser.ByTag("option"))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrElementNotFound.Code,
			appErrors.ErrElementNotFound.Status, "could not read the lab subject options")
	}

	subjects := make([]models.LabOption, 0, len(options))
	for _, option := range options {
		value, _, err := option.Attribute(ctx, "value")
		if err != nil {
			continue
		}
		text, err := option.Text(ctx)
		if err != nil {
			continue
		}
		if strings.TrimSpace(value) == "" || strings.Contains(strings.ToLower(text), "select") {
			continue
		}
		subjects = append(subjects, models.LabOption{Value: value, Text: text})
	}
	return subjects, nil
}

// ListLabSlots selects the given subject and parses the experiment table.
// Rows with fewer than five cells are layout chrome, not data. A slot whose
// submission date fails to parse stays available: losing an upload window to
// a formatting quirk is worse than showing a stale row.
func (r *PortalRepository) ListLabSlots(ctx context.Context, drv browser.Driver, labCode string) ([]models.LabSlot, error) {
	if err := r.OpenLabRecordPage(ctx, drv); err != nil {
		return nil, err
	}
	if err := r.selectByValue(ctx, drv, "select", labCode); err != nil {
		return nil, err
	}
	_ = drv.WaitVisible(ctx, browser.ByCSS("table tr"))

	rows, err := drv.FindAll(ctx, browser.ByCSS("table tr"))
	if err != nil {
		return nil, appErrors.ErrNoData
	}

	today := r.now()
	slots := make([]models.LabSlot, 0, len(rows))
	for _, row := range rows {
		cells, err := row.FindAll(ctx, browser.ByTag("td"))
		if err != nil || len(cells) < 5 {
			continue
		}

		weekText := cellText(ctx, cells[0])
		subjectCode := cellText(ctx, cells[1])
		experimentTitle := cellText(ctx, cells[2])
		batchNo := cellText(ctx, cells[3])
		submissionDate := cellText(ctx, cells[4])

		available := true
		if strings.Contains(submissionDate, "-") {
			if due, err := time.Parse("2-1-2006", submissionDate); err == nil {
				y, m, d := today.Date()
				available = !due.Before(time.Date(y, m, d, 0, 0, 0, 0, today.Location()))
			}
		}

		weekMatch := weekNumberRe.FindStringSubmatch(weekText)
		if weekMatch == nil || experimentTitle == "" || submissionDate == "" || !available {
			continue
		}
		slots = append(slots, models.LabSlot{
			WeekNumber:      weekMatch[1],
			WeekText:        weekText,
			SubjectCode:     subjectCode,
			ExperimentTitle: experimentTitle,
			BatchNo:         batchNo,
			SubmissionDate:  submissionDate,
			IsAvailable:     available,
		})
	}
	return slots, nil
}

// ExperimentTitle looks up the experiment title for one week of a lab.
// Returns an empty string when the week has no row.
func (r *PortalRepository) ExperimentTitle(ctx context.Context, drv browser.Driver, labCode, weekNumber string) (string, error) {
	if err := r.OpenLabRecordPage(ctx, drv); err != nil {
		return "", err
	}
	if err := r.selectByValue(ctx, drv, "select", labCode); err != nil {
		return "", err
	}
	_ = drv.WaitVisible(ctx, browser.ByCSS("table tr"))

	rows, err := drv.FindAll(ctx, browser.ByCSS("table tr"))
	if err != nil {
		return "", nil
	}
	for _, row := range rows {
		cells, err := row.FindAll(ctx, browser.ByTag("td"))
		if err != nil || len(cells) < 3 {
			continue
		}
		weekText := cellText(ctx, cells[0])
		if m := weekNumberRe.FindStringSubmatch(weekText); m != nil && m[1] == weekNumber {
			return cellText(ctx, cells[2]), nil
		}
	}
	return "", nil
}

// SubmitLabRecord fills and submits the upload form, then returns the
// resulting page source for outcome classification. documentPath must be an
// absolute path readable by the browser process.
func (r *PortalRepository) SubmitLabRecord(ctx context.Context, drv browser.Driver, labCode, week, title, documentPath string) (string, error) {
	if err := r.OpenLabRecordPage(ctx, drv); err != nil {
		return "", err
	}

	if err := drv.WaitVisible(ctx, browser.ByID("sub_code")); err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrElementNotFound.Code,
			appErrors.ErrElementNotFound.Status, "could not find the lab upload form")
	}
	if err := r.selectByValue(ctx, drv, "#sub_code", labCode); err != nil {
		return "", err
	}

	weekValue, err := r.reconcileWeekValue(ctx, drv, week)
	if err != nil {
		return "", err
	}
	r.logger.Debug("selecting week option", zap.String("week_value", weekValue))
	if err := r.selectByValue(ctx, drv, "#week_no", weekValue); err != nil {
		return "", err
	}

	titleField, err := drv.Find(ctx, browser.ByID("exp_title"))
	if err != nil {
		return "", elementFailure("experiment title field", err)
	}
	if err := titleField.Clear(ctx); err != nil {
		return "", elementFailure("experiment title field", err)
	}
	if err := titleField.SendKeys(ctx, title); err != nil {
		return "", elementFailure("experiment title field", err)
	}
	if got, err := titleField.Value(ctx); err != nil || got != title {
		if err := titleField.SetValue(ctx, title); err != nil {
			return "", elementFailure("experiment title field", err)
		}
	}

	fileInput, err := drv.Find(ctx, browser.ByID("prog_doc"))
	if err != nil {
		return "", elementFailure("document input", err)
	}
	if err := fileInput.UploadFile(ctx, documentPath); err != nil {
		return "", elementFailure("document input", err)
	}

	submit, err := drv.Find(ctx, browser.ByID("LAB_OK"))
	if err != nil {
		return "", elementFailure("submit button", err)
	}
	if err := submit.Click(ctx); err != nil {
		return "", elementFailure("submit button", err)
	}

	source, err := drv.PageSource(ctx)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrScrapeFailed.Code,
			appErrors.ErrScrapeFailed.Status, "failed to read the upload result page")
	}
	return source, nil
}

// reconcileWeekValue maps the caller-supplied week designator onto an actual
// option value of the week dropdown. The portal is inconsistent about the
// value encoding ("Week-7" vs "7"), so exact text is tried first, then the
// bare number, then the first option.
func (r *PortalRepository) reconcileWeekValue(ctx context.Context, drv browser.Driver, week string) (string, error) {
	dropdown, err := drv.Find(ctx, browser.ByID("week_no"))
	if err != nil {
		return "", elementFailure("week dropdown", err)
	}
	options, err := dropdown.FindAll(ctx, browser.ByTag("option"))
	if err != nil || len(options) == 0 {
		return "", appErrors.Wrap(err, appErrors.ErrElementNotFound.Code,
			appErrors.ErrElementNotFound.Status, "the week dropdown has no options")
	}

	values := make([]string, 0, len(options))
	for _, option := range options {
		value, _, err := option.Attribute(ctx, "value")
		if err != nil {
			continue
		}
		values = append(values, value)
	}
	if len(values) == 0 {
		return "", appErrors.New(appErrors.ErrElementNotFound.Code,
			appErrors.ErrElementNotFound.Status, "the week dropdown has no options")
	}

	if m := weekNumberRe.FindStringSubmatch(week); m != nil {
		for _, candidate := range []string{m[0], m[1]} {
			for _, value := range values {
				if value == candidate {
					return value, nil
				}
			}
		}
	} else {
		for _, value := range values {
			if value == week {
				return value, nil
			}
		}
	}
	return values[0], nil
}

// selectByValue sets a <select> element's value and fires a change event so
// the portal's own scripts repopulate the dependent controls.
func (r *PortalRepository) selectByValue(ctx context.Context, drv browser.Driver, selector, value string) error {
	expr := fmt.Sprintf(`(() => {
		const el = document.querySelector(%q);
		if (!el) { return false; }
		el.value = %q;
		el.dispatchEvent(new Event('change', { bubbles: true }));
		return true;
	})()`, selector, value)

	var ok bool
	if err := drv.Eval(ctx, expr, &ok); err != nil {
		return appErrors.Wrap(err, appErrors.ErrScrapeFailed.Code,
			appErrors.ErrScrapeFailed.Status, "failed to operate the selection control")
	}
	if !ok {
		return appErrors.New(appErrors.ErrElementNotFound.Code,
			appErrors.ErrElementNotFound.Status,
			fmt.Sprintf("could not find selection control %s", selector))
	}
	return nil
}

func cellText(ctx context.Context, cell browser.Element) string {
	text, err := cell.Text(ctx)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(text)
}

func elementFailure(what string, err error) error {
	return appErrors.Wrap(err, appErrors.ErrElementNotFound.Code,
		appErrors.ErrElementNotFound.Status, fmt.Sprintf("failed to operate the %s", what))
}
