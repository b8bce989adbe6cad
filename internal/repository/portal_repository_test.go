package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/samvidha-portal-api/internal/models"
	"github.com/noah-isme/samvidha-portal-api/pkg/browser"
	appErrors "github.com/noah-isme/samvidha-portal-api/pkg/errors"
)

type fakeElement struct {
	text     string
	value    string
	attrs    map[string]string
	children map[string][]browser.Element

	sent     []string
	clicked  bool
	cleared  bool
	uploaded string

	clickErr error
}

func (e *fakeElement) Text(ctx context.Context) (string, error) { return e.text, nil }

func (e *fakeElement) SendKeys(ctx context.Context, keys string) error {
	e.sent = append(e.sent, keys)
	e.value += keys
	return nil
}

func (e *fakeElement) Click(ctx context.Context) error {
	if e.clickErr != nil {
		return e.clickErr
	}
	e.clicked = true
	return nil
}

func (e *fakeElement) Clear(ctx context.Context) error {
	e.cleared = true
	e.value = ""
	return nil
}

func (e *fakeElement) SetValue(ctx context.Context, value string) error {
	e.value = value
	return nil
}

func (e *fakeElement) Value(ctx context.Context) (string, error) { return e.value, nil }

func (e *fakeElement) Attribute(ctx context.Context, name string) (string, bool, error) {
	v, ok := e.attrs[name]
	return v, ok, nil
}

func (e *fakeElement) Visible(ctx context.Context) (bool, error) { return true, nil }
func (e *fakeElement) Enabled(ctx context.Context) (bool, error) { return true, nil }

func (e *fakeElement) UploadFile(ctx context.Context, path string) error {
	e.uploaded = path
	return nil
}

func (e *fakeElement) FindAll(ctx context.Context, sel browser.Selector) ([]browser.Element, error) {
	return e.children[sel.Query], nil
}

type fakeDriver struct {
	url        string
	elements   map[string]browser.Element
	lists      map[string][]browser.Element
	navigated  []string
	evalExprs  []string
	evalResult bool
	pageSource string
}

func newFakeDriver() *fakeDriver {
	return &fakeDriver{
		elements:   map[string]browser.Element{},
		lists:      map[string][]browser.Element{},
		evalResult: true,
	}
}

func (d *fakeDriver) Navigate(ctx context.Context, url string) error {
	d.navigated = append(d.navigated, url)
	return nil
}

func (d *fakeDriver) WaitVisible(ctx context.Context, sel browser.Selector) error {
	if _, ok := d.elements[sel.Query]; ok {
		return nil
	}
	if list := d.lists[sel.Query]; len(list) > 0 {
		return nil
	}
	return errors.New("not visible")
}

func (d *fakeDriver) Find(ctx context.Context, sel browser.Selector) (browser.Element, error) {
	if el, ok := d.elements[sel.Query]; ok {
		return el, nil
	}
	if list := d.lists[sel.Query]; len(list) > 0 {
		return list[0], nil
	}
	return nil, errors.New("no such element")
}

func (d *fakeDriver) FindAll(ctx context.Context, sel browser.Selector) ([]browser.Element, error) {
	return d.lists[sel.Query], nil
}

func (d *fakeDriver) Eval(ctx context.Context, expr string, out interface{}) error {
	d.evalExprs = append(d.evalExprs, expr)
	if b, ok := out.(*bool); ok {
		*b = d.evalResult
	}
	return nil
}

func (d *fakeDriver) CurrentURL(ctx context.Context) (string, error) { return d.url, nil }
func (d *fakeDriver) PageSource(ctx context.Context) (string, error) { return d.pageSource, nil }

func newTestPortalRepository() *PortalRepository {
	return NewPortalRepository(PortalRepositoryParams{
		BaseURL:       "https://samvidha.iare.ac.in/",
		AttendanceURL: "https://samvidha.iare.ac.in/home?action=stud_att_STD",
		LabRecordURL:  "https://samvidha.iare.ac.in/home?action=labrecord_std",
	})
}

// expireLoginWait makes the post-submit URL poll give up on its second clock
// reading instead of sleeping through the real timeout.
func expireLoginWait(repo *PortalRepository) {
	base := time.Now()
	calls := 0
	repo.now = func() time.Time {
		calls++
		if calls == 1 {
			return base
		}
		return base.Add(loginWaitTimeout + time.Second)
	}
}

func TestLoginPrimaryFieldIDs(t *testing.T) {
	repo := newTestPortalRepository()
	drv := newFakeDriver()
	username := &fakeElement{}
	password := &fakeElement{}
	submit := &fakeElement{}
	drv.elements["#txt_uname"] = username
	drv.elements["#txt_pwd"] = password
	drv.elements["#but_submit"] = submit
	drv.url = "https://samvidha.iare.ac.in/home?action=std"

	err := repo.Login(context.Background(), drv, models.Credentials{Username: "22951A0000", Password: "hunter2"})

	require.NoError(t, err)
	assert.Equal(t, []string{"22951A0000"}, username.sent)
	assert.Equal(t, []string{"hunter2"}, password.sent)
	assert.True(t, submit.clicked)
}

func TestLoginFallsBackToPositionalInputs(t *testing.T) {
	repo := newTestPortalRepository()
	drv := newFakeDriver()
	first := &fakeElement{}
	second := &fakeElement{}
	submit := &fakeElement{}
	drv.lists["input"] = []browser.Element{first, second}
	drv.elements["input[type='submit']"] = submit
	drv.url = "https://samvidha.iare.ac.in/home"

	err := repo.Login(context.Background(), drv, models.Credentials{Username: "user", Password: "pass"})

	require.NoError(t, err)
	assert.Equal(t, []string{"user"}, first.sent)
	assert.Equal(t, []string{"pass"}, second.sent)
	assert.True(t, submit.clicked)
}

func TestLoginFailsWithoutInputFields(t *testing.T) {
	repo := newTestPortalRepository()
	drv := newFakeDriver()
	drv.lists["input"] = []browser.Element{&fakeElement{}}

	err := repo.Login(context.Background(), drv, models.Credentials{Username: "user", Password: "pass"})

	assert.ErrorIs(t, err, appErrors.ErrElementNotFound)
}

func TestLoginRejectsInvalidCredentials(t *testing.T) {
	repo := newTestPortalRepository()
	expireLoginWait(repo)
	drv := newFakeDriver()
	drv.elements["#txt_uname"] = &fakeElement{}
	drv.elements["#txt_pwd"] = &fakeElement{}
	drv.elements["#but_submit"] = &fakeElement{}
	drv.url = "https://samvidha.iare.ac.in/index.php?error=1"

	err := repo.Login(context.Background(), drv, models.Credentials{Username: "user", Password: "wrong"})

	assert.ErrorIs(t, err, appErrors.ErrInvalidCredentials)
}

func TestFetchAttendanceRowsViaMenuLink(t *testing.T) {
	repo := newTestPortalRepository()
	drv := newFakeDriver()
	link := &fakeElement{}
	drv.elements[`//a[normalize-space(text())="Course Content"]`] = link
	drv.lists["tr"] = []browser.Element{
		&fakeElement{text: "AAB101 - MATH"},
		&fakeElement{text: "P1 PRESENT 20 Aug 2025"},
	}

	rows, err := repo.FetchAttendanceRows(context.Background(), drv)

	require.NoError(t, err)
	assert.True(t, link.clicked)
	assert.Empty(t, drv.navigated)
	assert.Equal(t, []string{"AAB101 - MATH", "P1 PRESENT 20 Aug 2025"}, rows)
}

func TestFetchAttendanceRowsFallsBackToDirectURL(t *testing.T) {
	repo := newTestPortalRepository()
	drv := newFakeDriver()
	drv.lists["tr"] = []browser.Element{&fakeElement{text: "AAB101 - MATH"}}

	rows, err := repo.FetchAttendanceRows(context.Background(), drv)

	require.NoError(t, err)
	assert.Equal(t, []string{"https://samvidha.iare.ac.in/home?action=stud_att_STD"}, drv.navigated)
	assert.Len(t, rows, 1)
}

func TestFetchAttendanceRowsEmptyPage(t *testing.T) {
	repo := newTestPortalRepository()
	drv := newFakeDriver()

	_, err := repo.FetchAttendanceRows(context.Background(), drv)

	assert.ErrorIs(t, err, appErrors.ErrNoData)
}

func TestListLabSubjectsFiltersPlaceholders(t *testing.T) {
	repo := newTestPortalRepository()
	drv := newFakeDriver()
	dropdown := &fakeElement{children: map[string][]browser.Element{
		"option": {
			&fakeElement{text: "-- Select Lab --", attrs: map[string]string{"value": ""}},
			&fakeElement{text: "Select a subject", attrs: map[string]string{"value": "X"}},
			&fakeElement{text: "DATA STRUCTURES LAB", attrs: map[string]string{"value": "AAB110"}},
		},
	}}
	drv.elements["select"] = dropdown

	subjects, err := repo.ListLabSubjects(context.Background(), drv)

	require.NoError(t, err)
	require.Len(t, subjects, 1)
	assert.Equal(t, models.LabOption{Value: "AAB110", Text: "DATA STRUCTURES LAB"}, subjects[0])
}

func labRow(week, code, title, batch, date string) browser.Element {
	return &fakeElement{children: map[string][]browser.Element{
		"td": {
			&fakeElement{text: week},
			&fakeElement{text: code},
			&fakeElement{text: title},
			&fakeElement{text: batch},
			&fakeElement{text: date},
		},
	}}
}

func TestListLabSlotsFiltersPastAndMalformedRows(t *testing.T) {
	repo := newTestPortalRepository()
	repo.now = func() time.Time { return time.Date(2025, 8, 20, 12, 0, 0, 0, time.UTC) }
	drv := newFakeDriver()
	drv.elements["select"] = &fakeElement{}
	drv.lists["table tr"] = []browser.Element{
		labRow("Week-1", "AAB110", "Stacks", "B1", "10-08-2025"),  // past
		labRow("Week-2", "AAB110", "Queues", "B1", "20-08-2025"),  // today
		labRow("Week-3", "AAB110", "Trees", "B1", "25-08-2025"),   // future
		labRow("Week-4", "AAB110", "", "B1", "30-08-2025"),        // no title
		labRow("Session 5", "AAB110", "Graphs", "B1", "30-08-2025"), // no week number
		labRow("Week-6", "AAB110", "Hashing", "B1", "TBA"),        // unparseable date, fail-open
		&fakeElement{children: map[string][]browser.Element{"td": {&fakeElement{text: "header"}}}},
	}

	slots, err := repo.ListLabSlots(context.Background(), drv, "AAB110")

	require.NoError(t, err)
	require.Len(t, slots, 3)
	assert.Equal(t, "2", slots[0].WeekNumber)
	assert.Equal(t, "3", slots[1].WeekNumber)
	assert.Equal(t, "6", slots[2].WeekNumber)
	assert.True(t, slots[2].IsAvailable)
}

func TestExperimentTitleMatchesWeek(t *testing.T) {
	repo := newTestPortalRepository()
	drv := newFakeDriver()
	drv.elements["select"] = &fakeElement{}
	drv.lists["table tr"] = []browser.Element{
		labRow("Week-1", "AAB110", "Stacks", "B1", "10-08-2025"),
		labRow("Week-7", "AAB110", "Sorting", "B1", "30-08-2025"),
	}

	title, err := repo.ExperimentTitle(context.Background(), drv, "AAB110", "7")

	require.NoError(t, err)
	assert.Equal(t, "Sorting", title)
}

func TestExperimentTitleUnknownWeekIsEmpty(t *testing.T) {
	repo := newTestPortalRepository()
	drv := newFakeDriver()
	drv.elements["select"] = &fakeElement{}
	drv.lists["table tr"] = []browser.Element{
		labRow("Week-1", "AAB110", "Stacks", "B1", "10-08-2025"),
	}

	title, err := repo.ExperimentTitle(context.Background(), drv, "AAB110", "9")

	require.NoError(t, err)
	assert.Empty(t, title)
}

func weekDropdown(values ...string) *fakeElement {
	options := make([]browser.Element, 0, len(values))
	for _, v := range values {
		options = append(options, &fakeElement{attrs: map[string]string{"value": v}})
	}
	return &fakeElement{children: map[string][]browser.Element{"option": options}}
}

func TestReconcileWeekValue(t *testing.T) {
	repo := newTestPortalRepository()

	cases := []struct {
		name   string
		week   string
		values []string
		want   string
	}{
		{"exact week text", "Week-7", []string{"Week-1", "Week-7"}, "Week-7"},
		{"bare number", "Week-7", []string{"1", "7"}, "7"},
		{"no match falls back to first", "Week-9", []string{"Week-1", "Week-2"}, "Week-1"},
		{"bare numeric input falls back to first", "7", []string{"Week-7"}, "Week-7"},
		{"unrecognised input falls back to first", "finals", []string{"Week-1"}, "Week-1"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			drv := newFakeDriver()
			drv.elements["#week_no"] = weekDropdown(tc.values...)

			got, err := repo.reconcileWeekValue(context.Background(), drv, tc.week)

			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestSubmitLabRecord(t *testing.T) {
	repo := newTestPortalRepository()
	drv := newFakeDriver()
	titleField := &fakeElement{}
	fileInput := &fakeElement{}
	submit := &fakeElement{}
	drv.elements["#sub_code"] = &fakeElement{}
	drv.elements["#week_no"] = weekDropdown("Week-7")
	drv.elements["#exp_title"] = titleField
	drv.elements["#prog_doc"] = fileInput
	drv.elements["#LAB_OK"] = submit
	drv.pageSource = "<html>Record uploaded successfully</html>"

	source, err := repo.SubmitLabRecord(context.Background(), drv, "AAB110", "Week-7", "Sorting", "/tmp/record.pdf")

	require.NoError(t, err)
	assert.Equal(t, "Sorting", titleField.value)
	assert.True(t, titleField.cleared)
	assert.Equal(t, "/tmp/record.pdf", fileInput.uploaded)
	assert.True(t, submit.clicked)
	assert.Contains(t, source, "uploaded successfully")
	// Both dropdowns are driven through script so change handlers fire.
	assert.Len(t, drv.evalExprs, 2)
}
