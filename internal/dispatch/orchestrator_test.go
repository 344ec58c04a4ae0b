package dispatch

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/garyjia/event-regform/internal/domain/entity"
	"github.com/garyjia/event-regform/internal/export"
)

type fakeSource struct {
	record entity.FormRecord
	draft  string
}

func (s *fakeSource) Record() entity.FormRecord { return s.record }
func (s *fakeSource) Draft() string             { return s.draft }

type fakeExporter struct {
	exportFunc func(ctx context.Context, containerID string) (*export.Blob, error)
}

func (f *fakeExporter) ExportBlob(ctx context.Context, containerID string) (*export.Blob, error) {
	return f.exportFunc(ctx, containerID)
}

type fakeDownloader struct {
	names []string
	err   error
}

func (f *fakeDownloader) Download(ctx context.Context, fileName string, blob *export.Blob) (string, error) {
	f.names = append(f.names, fileName)
	if f.err != nil {
		return "", f.err
	}
	return "/tmp/" + fileName, nil
}

type fakeClipboard struct {
	text string
	err  error
}

func (f *fakeClipboard) WriteText(text string) error {
	f.text = text
	return f.err
}

type fakeSharer struct {
	available bool
	outcome   ShareOutcome
	requests  []ShareRequest
}

func (f *fakeSharer) CanShare() bool { return f.available }

func (f *fakeSharer) Share(ctx context.Context, req ShareRequest) ShareOutcome {
	f.requests = append(f.requests, req)
	return f.outcome
}

type fakeOpener struct {
	urls []string
}

func (f *fakeOpener) Open(ctx context.Context, u string) error {
	f.urls = append(f.urls, u)
	return nil
}

const testDraft = "เรียน ผู้จัดงาน\n\nข้าพเจ้าขอส่งใบตอบรับ (ฉบับจริง) & เอกสาร 100%"

func pdfBlob() *export.Blob {
	return &export.Blob{Data: []byte("%PDF-1.3 test"), MediaType: export.MediaTypePDF}
}

func testRecord() entity.FormRecord {
	return entity.FormRecord{
		ProjectName:    "ประชุมวิชาการ 2569",
		FullName:       "สมชาย ใจดี",
		AttendanceType: entity.AttendanceOnsite,
		IsCertified:    true,
		SignatureData:  "data:image/png;base64,AAAA",
	}
}

type harness struct {
	orch      *Orchestrator
	source    *fakeSource
	exporter  *fakeExporter
	download  *fakeDownloader
	clipboard *fakeClipboard
	sharer    *fakeSharer
	opener    *fakeOpener
	states    []State
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		source: &fakeSource{record: testRecord(), draft: testDraft},
		exporter: &fakeExporter{exportFunc: func(ctx context.Context, containerID string) (*export.Blob, error) {
			return pdfBlob(), nil
		}},
		download:  &fakeDownloader{},
		clipboard: &fakeClipboard{},
		sharer:    &fakeSharer{available: true, outcome: ShareCompleted},
		opener:    &fakeOpener{},
	}
	h.orch = NewOrchestrator(h.source, Deps{
		Exporter:   h.exporter,
		Downloader: h.download,
		Clipboard:  h.clipboard,
		Sharer:     h.sharer,
		Opener:     h.opener,
	}, Config{
		ContainerID:      "form-document",
		OrganizerAddress: "organizer@example.ac.th",
	}, zap.NewNop())
	h.orch.Observe(func(s State) { h.states = append(h.states, s) })
	return h
}

func TestDispatch_Gmail(t *testing.T) {
	h := newHarness(t)

	result, err := h.orch.Dispatch(context.Background(), ProviderGmail)
	require.NoError(t, err)

	assert.Equal(t, OutcomeSent, result.Outcome)
	assert.Equal(t, "ใบตอบรับ_สมชาย ใจดี.pdf", result.FileName)
	assert.Equal(t, []string{"ใบตอบรับ_สมชาย ใจดี.pdf"}, h.download.names)
	assert.Equal(t, "/tmp/ใบตอบรับ_สมชาย ใจดี.pdf", result.DownloadLocation)
	assert.Equal(t, testDraft, h.clipboard.text)
	assert.Equal(t, []State{StateGenerating, StateSending, StateSuccess}, h.states)
	assert.Equal(t, StateSuccess, h.orch.State())

	require.True(t, strings.HasPrefix(result.ComposeURL, "https://mail.google.com/mail/?view=cm&fs=1&to="))
	assert.Equal(t, []string{result.ComposeURL}, h.opener.urls)
	assert.NotContains(t, result.ComposeURL, "+", "spaces are encoded as %20")

	u, err := url.Parse(result.ComposeURL)
	require.NoError(t, err)
	q := u.Query()
	assert.Equal(t, "organizer@example.ac.th", q.Get("to"))
	assert.Equal(t, "ใบตอบรับ: ประชุมวิชาการ 2569 - สมชาย ใจดี", q.Get("su"))
	assert.Equal(t, testDraft, q.Get("body"))

	assert.True(t, h.orch.Confirm(context.Background()))
	assert.Equal(t, StateIdle, h.orch.State())
	assert.False(t, h.orch.Confirm(context.Background()))
}

func TestDispatch_OutlookWithoutDraft(t *testing.T) {
	h := newHarness(t)
	h.source.draft = ""

	result, err := h.orch.Dispatch(context.Background(), ProviderOutlook)
	require.NoError(t, err)

	require.True(t, strings.HasPrefix(result.ComposeURL, "https://outlook.live.com/owa/?path=/mail/action/compose&to="))
	u, err := url.Parse(result.ComposeURL)
	require.NoError(t, err)
	assert.Equal(t, "เรียน ผู้จัดงาน...", u.Query().Get("body"))
	assert.Equal(t, "ใบตอบรับ: ประชุมวิชาการ 2569 - สมชาย ใจดี", u.Query().Get("subject"))
	assert.Empty(t, h.clipboard.text, "nothing to copy without a draft")
}

func TestDispatch_Share(t *testing.T) {
	t.Run("completed", func(t *testing.T) {
		h := newHarness(t)

		result, err := h.orch.Dispatch(context.Background(), ProviderShare)
		require.NoError(t, err)
		assert.Equal(t, OutcomeSent, result.Outcome)
		assert.Equal(t, StateSuccess, h.orch.State())
		assert.Empty(t, h.download.names)

		require.Len(t, h.sharer.requests, 1)
		req := h.sharer.requests[0]
		assert.Equal(t, ShareTitle, req.Title)
		assert.Equal(t, testDraft, req.Text)
		require.Len(t, req.Files, 1)
		assert.Equal(t, "ใบตอบรับ_สมชาย ใจดี.pdf", req.Files[0].Name)
		assert.Equal(t, export.MediaTypePDF, req.Files[0].MediaType)
	})

	t.Run("cancelled returns to idle", func(t *testing.T) {
		h := newHarness(t)
		h.sharer.outcome = ShareCancelled
		h.source.draft = ""

		result, err := h.orch.Dispatch(context.Background(), ProviderShare)
		require.NoError(t, err)
		assert.Equal(t, OutcomeCancelled, result.Outcome)
		assert.Equal(t, StateIdle, h.orch.State())
		assert.Equal(t, []State{StateGenerating, StateSending, StateIdle}, h.states)
		assert.Equal(t, "ส่งใบตอบรับของ สมชาย ใจดี", h.sharer.requests[0].Text)
	})

	t.Run("unavailable", func(t *testing.T) {
		h := newHarness(t)
		h.sharer.available = false

		_, err := h.orch.Dispatch(context.Background(), ProviderShare)
		assert.ErrorIs(t, err, ErrProviderUnavailable)
		assert.Equal(t, StateIdle, h.orch.State())
		assert.Empty(t, h.states)
		assert.NotContains(t, h.orch.Providers(), ProviderShare)
	})
}

func TestDispatch_NothingToExport(t *testing.T) {
	h := newHarness(t)
	h.exporter.exportFunc = func(ctx context.Context, containerID string) (*export.Blob, error) {
		return nil, nil
	}

	result, err := h.orch.Dispatch(context.Background(), ProviderGmail)
	require.NoError(t, err)
	assert.Equal(t, OutcomeAborted, result.Outcome)
	assert.Equal(t, StateIdle, h.orch.State())
	assert.Equal(t, []State{StateGenerating, StateIdle}, h.states)
	assert.Empty(t, h.download.names)
	assert.Empty(t, h.opener.urls)
	assert.Empty(t, h.clipboard.text)
}

func TestDispatch_ExportError(t *testing.T) {
	h := newHarness(t)
	h.exporter.exportFunc = func(ctx context.Context, containerID string) (*export.Blob, error) {
		return nil, errors.New("raster failed")
	}

	result, err := h.orch.Dispatch(context.Background(), ProviderOutlook)
	require.NoError(t, err)
	assert.Equal(t, OutcomeAborted, result.Outcome)
	assert.Equal(t, StateIdle, h.orch.State())
}

func TestDispatch_ClipboardFailureIsIgnored(t *testing.T) {
	h := newHarness(t)
	h.clipboard.err = errors.New("permission denied")

	result, err := h.orch.Dispatch(context.Background(), ProviderGmail)
	require.NoError(t, err)
	assert.Equal(t, OutcomeSent, result.Outcome)
}

func TestDispatch_DownloadFailure(t *testing.T) {
	h := newHarness(t)
	h.download.err = errors.New("disk full")

	result, err := h.orch.Dispatch(context.Background(), ProviderGmail)
	require.NoError(t, err)
	assert.Equal(t, OutcomeAborted, result.Outcome)
	assert.Empty(t, result.ComposeURL)
	assert.Equal(t, StateIdle, h.orch.State())
	assert.Empty(t, h.opener.urls)
}

func TestDispatch_UnknownProvider(t *testing.T) {
	h := newHarness(t)
	_, err := h.orch.Dispatch(context.Background(), Provider("fax"))
	assert.ErrorIs(t, err, ErrUnknownProvider)
}

func TestDispatch_RejectsReentry(t *testing.T) {
	h := newHarness(t)

	entered := make(chan struct{})
	release := make(chan struct{})
	h.exporter.exportFunc = func(ctx context.Context, containerID string) (*export.Blob, error) {
		close(entered)
		<-release
		return pdfBlob(), nil
	}

	var wg sync.WaitGroup
	wg.Add(1)
	var first Result
	var firstErr error
	go func() {
		defer wg.Done()
		first, firstErr = h.orch.Dispatch(context.Background(), ProviderGmail)
	}()

	select {
	case <-entered:
	case <-time.After(5 * time.Second):
		t.Fatal("export never started")
	}

	assert.Equal(t, StateGenerating, h.orch.State())
	_, err := h.orch.Dispatch(context.Background(), ProviderOutlook)
	assert.ErrorIs(t, err, ErrDispatchInProgress)

	close(release)
	wg.Wait()
	require.NoError(t, firstErr)
	assert.Equal(t, ProviderGmail, first.Provider)
	assert.Len(t, h.download.names, 1)

	_, err = h.orch.Dispatch(context.Background(), ProviderOutlook)
	assert.ErrorIs(t, err, ErrDispatchInProgress, "success must be confirmed first")
}

func TestProviders(t *testing.T) {
	h := newHarness(t)
	assert.Equal(t, []Provider{ProviderShare, ProviderGmail, ProviderOutlook, ProviderInstitutional}, h.orch.Providers())
}
