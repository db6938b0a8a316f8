// Package orchestrator is the action layer between the UI and the gateway.
// It owns the in-flight flags, the current-error slot, and the level and
// input staging for new analyses. Each operation is a blocking call meant
// to run on its own goroutine (the TUI dispatches them as commands); gates
// make concurrent invocations of the same operation silent no-ops instead
// of queued duplicates.
package orchestrator

import (
	"context"
	"sync"

	"conceptlens/internal/directive"
	"conceptlens/internal/gateway"
	"conceptlens/internal/logging"
	"conceptlens/internal/store"
	"conceptlens/internal/types"
)

// mediaApology is appended to a chat message whose media generation failed.
const mediaApology = "\n\n(Sorry, I couldn't generate the visualization this time. Check your API key settings.)"

// Orchestrator coordinates analyses, media jobs, and chat for one client.
type Orchestrator struct {
	gw       gateway.Client
	selector gateway.KeySelector
	store    *store.Store

	mu    sync.Mutex
	level types.EducationLevel
	input types.TopicInput

	isAnalyzing       bool
	imageJobs         int
	isGeneratingVideo bool
	isChatting        bool

	errMsg string

	notify func()

	// wg tracks detached media goroutines so tests and shutdown can join.
	wg sync.WaitGroup
}

// New creates an orchestrator. The selector may be nil; video generation
// then fails without the key reselection retry.
func New(gw gateway.Client, selector gateway.KeySelector, st *store.Store) *Orchestrator {
	return &Orchestrator{
		gw:       gw,
		selector: selector,
		store:    st,
		level:    types.LevelMiddle,
	}
}

// SetNotify registers a callback invoked after every observable state
// transition. The TUI uses it to push refreshes into the event loop.
func (o *Orchestrator) SetNotify(fn func()) {
	o.mu.Lock()
	o.notify = fn
	o.mu.Unlock()
}

func (o *Orchestrator) notifyChanged() {
	o.mu.Lock()
	fn := o.notify
	o.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// Wait blocks until all detached media goroutines finish.
func (o *Orchestrator) Wait() {
	o.wg.Wait()
}

// Snapshot returns a copy of the full UI-facing state.
func (o *Orchestrator) Snapshot() types.AppState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return types.AppState{
		Sessions:          o.store.List(),
		CurrentSessionID:  o.store.CurrentID(),
		Level:             o.level,
		Input:             o.input,
		IsAnalyzing:       o.isAnalyzing,
		IsGeneratingImage: o.imageJobs > 0,
		IsGeneratingVideo: o.isGeneratingVideo,
		IsChatting:        o.isChatting,
		Err:               o.errMsg,
	}
}

// SetLevel stages the education level for the next analysis. It does not
// touch existing sessions; ChangeLevel does that.
func (o *Orchestrator) SetLevel(level types.EducationLevel) {
	o.mu.Lock()
	o.level = level
	o.mu.Unlock()
	o.notifyChanged()
}

// Level returns the staged education level.
func (o *Orchestrator) Level() types.EducationLevel {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.level
}

// SetInput stages the topic input for the next analysis.
func (o *Orchestrator) SetInput(input types.TopicInput) {
	o.mu.Lock()
	o.input = input
	o.mu.Unlock()
	o.notifyChanged()
}

// SelectSession switches the current session.
func (o *Orchestrator) SelectSession(id string) {
	if o.store.Select(id) {
		o.notifyChanged()
	}
}

// DeleteSession removes a session.
func (o *Orchestrator) DeleteSession(id string) {
	if o.store.Delete(id) {
		o.notifyChanged()
	}
}

// NewSession clears the selection and input staging so the UI returns to
// the blank input view. Existing sessions are untouched.
func (o *Orchestrator) NewSession() {
	o.store.ClearSelection()
	o.mu.Lock()
	o.input = types.TopicInput{}
	o.errMsg = ""
	o.mu.Unlock()
	o.notifyChanged()
}

// Analyze runs a full analysis of the input at the staged level, creates
// and selects the resulting session, then generates its illustrative image
// in the background. A concurrent Analyze is a silent no-op. An analysis
// failure surfaces in the error slot and leaves the session list
// untouched; an image failure is logged but never surfaces.
func (o *Orchestrator) Analyze(ctx context.Context, input types.TopicInput) error {
	o.mu.Lock()
	if o.isAnalyzing {
		o.mu.Unlock()
		return nil
	}
	if input.Text == "" && !input.HasImage() {
		o.mu.Unlock()
		return nil
	}
	o.isAnalyzing = true
	o.errMsg = ""
	level := o.level
	o.mu.Unlock()
	o.notifyChanged()

	logging.Orchestrator("analyze started level=%q text_len=%d has_image=%t", level, len(input.Text), input.HasImage())

	result, err := o.gw.Analyze(ctx, input, level)
	if err != nil {
		o.mu.Lock()
		o.isAnalyzing = false
		o.errMsg = err.Error()
		o.mu.Unlock()
		o.notifyChanged()
		logging.OrchestratorError("analyze failed: %v", err)
		return err
	}

	session := o.store.Create(input, level, result)

	o.mu.Lock()
	o.isAnalyzing = false
	o.input = types.TopicInput{}
	o.mu.Unlock()
	o.notifyChanged()

	o.generateSessionImage(ctx, session.ID, session.ResultRev, result.ImageGenerationPrompt)
	return nil
}

// generateSessionImage runs the illustrative image stage in a detached
// goroutine. Every successful analysis launches its own job; concurrent
// jobs are fine because each write back is guarded by the session revision
// captured at launch, so only the job matching the current analysis lands.
func (o *Orchestrator) generateSessionImage(ctx context.Context, sessionID string, rev int, prompt string) {
	o.mu.Lock()
	o.imageJobs++
	o.mu.Unlock()
	o.notifyChanged()

	// The job survives the dispatching command's context.
	bg := context.WithoutCancel(ctx)

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()

		url, err := o.gw.GenerateImage(bg, prompt)

		o.mu.Lock()
		o.imageJobs--
		o.mu.Unlock()

		if err != nil {
			// Illustration is best effort; the text result stands alone.
			logging.OrchestratorError("session image failed for %s: %v", sessionID, err)
			o.notifyChanged()
			return
		}

		if !o.store.Update(sessionID, store.Patch{ImageURL: &url, RequireRev: &rev}) {
			logging.OrchestratorDebug("session image for %s dropped (session changed)", sessionID)
		}
		o.notifyChanged()
	}()
}

// ChangeLevel re-analyzes the current session's original input at a new
// level. On success the session's analysis, media, and chat are replaced
// atomically and the staged level follows; on failure the session keeps
// its prior content untouched. No-op without a selection or while an
// analysis is running.
func (o *Orchestrator) ChangeLevel(ctx context.Context, newLevel types.EducationLevel) error {
	session, ok := o.store.Current()
	if !ok {
		return nil
	}

	o.mu.Lock()
	if o.isAnalyzing {
		o.mu.Unlock()
		return nil
	}
	o.isAnalyzing = true
	o.errMsg = ""
	o.mu.Unlock()
	o.notifyChanged()

	logging.Orchestrator("level change started session=%s %q -> %q", session.ID, session.Level, newLevel)

	result, err := o.gw.Analyze(ctx, session.Input, newLevel)
	if err != nil {
		o.mu.Lock()
		o.isAnalyzing = false
		o.errMsg = err.Error()
		o.mu.Unlock()
		o.notifyChanged()
		logging.OrchestratorError("level change failed: %v", err)
		return err
	}

	o.store.Update(session.ID, store.Patch{Result: &store.ResultPatch{
		Level:  newLevel,
		Result: result,
	}})

	o.mu.Lock()
	o.isAnalyzing = false
	o.level = newLevel
	o.mu.Unlock()
	o.notifyChanged()

	// Regenerate the illustration for the new rendition.
	if updated, ok := o.store.Get(session.ID); ok {
		o.generateSessionImage(ctx, updated.ID, updated.ResultRev, result.ImageGenerationPrompt)
	}
	return nil
}

// GenerateVideo runs the animation job for the current session. The job is
// on demand and expensive, so nothing starts it implicitly. A concurrent
// call is a silent no-op. Credential rejections go through the one-shot
// key reselection before surfacing.
func (o *Orchestrator) GenerateVideo(ctx context.Context) error {
	session, ok := o.store.Current()
	if !ok {
		return nil
	}

	o.mu.Lock()
	if o.isGeneratingVideo {
		o.mu.Unlock()
		return nil
	}
	o.isGeneratingVideo = true
	o.errMsg = ""
	o.mu.Unlock()
	o.notifyChanged()

	logging.Orchestrator("video generation started session=%s", session.ID)

	url, err := o.gw.GenerateVideoWithAuth(ctx, session.Result.AnimationPrompt, o.selector)

	o.mu.Lock()
	o.isGeneratingVideo = false
	if err != nil {
		if gateway.IsNotFoundClass(err) {
			o.errMsg = "Video generation failed: the API key was rejected. Veo requires a key with billing enabled."
		} else {
			o.errMsg = err.Error()
		}
	}
	o.mu.Unlock()
	o.notifyChanged()

	if err != nil {
		logging.OrchestratorError("video generation failed: %v", err)
		return err
	}

	if !o.store.Update(session.ID, store.Patch{VideoURL: &url, RequireRev: &session.ResultRev}) {
		logging.OrchestratorDebug("video for %s dropped (session changed)", session.ID)
	}
	o.notifyChanged()
	return nil
}

// SendMessage runs one chat turn on the current session. The send is
// optimistic: the user's message lands in the transcript before the call.
// No-op without a selection, while another turn is running, or while any
// message still has media in flight. When the reply carries a media
// directive, the stripped reply is shown immediately and the media
// resolves asynchronously into the same message.
func (o *Orchestrator) SendMessage(ctx context.Context, text string) error {
	if text == "" {
		return nil
	}
	session, ok := o.store.Current()
	if !ok {
		return nil
	}

	o.mu.Lock()
	if o.isChatting || o.store.HasPendingMedia(session.ID) {
		o.mu.Unlock()
		return nil
	}
	o.isChatting = true
	o.errMsg = ""
	o.mu.Unlock()
	o.notifyChanged()

	// History excludes the message being sent.
	history := session.ChatHistory

	if _, ok := o.store.AppendMessage(session.ID, types.ChatMessage{
		Role: types.RoleUser,
		Text: text,
	}); !ok {
		o.mu.Lock()
		o.isChatting = false
		o.mu.Unlock()
		o.notifyChanged()
		return nil
	}
	o.notifyChanged()

	reply, err := o.gw.ChatTurn(ctx, history, text, session.Level, session.Result)
	if err != nil {
		o.mu.Lock()
		o.isChatting = false
		o.errMsg = err.Error()
		o.mu.Unlock()
		o.notifyChanged()
		logging.OrchestratorError("chat turn failed: %v", err)
		return err
	}

	display, intent := directive.Parse(reply)

	msg := types.ChatMessage{Role: types.RoleModel, Text: display}
	if intent != nil {
		msg.MediaKind = intent.Kind
		msg.IsGeneratingMedia = true
	}
	idx, appended := o.store.AppendMessage(session.ID, msg)

	o.mu.Lock()
	o.isChatting = false
	o.mu.Unlock()
	o.notifyChanged()

	if intent != nil && appended {
		o.resolveChatMedia(ctx, session.ID, idx, *intent)
	}
	return nil
}

// resolveChatMedia generates the media a chat reply asked for and amends
// the pending message in place. Failure downgrades the message to an
// inline apology instead of surfacing in the error slot.
func (o *Orchestrator) resolveChatMedia(ctx context.Context, sessionID string, idx int, intent directive.Intent) {
	logging.Chat("resolving %s directive for session %s message %d", intent.Kind, sessionID, idx)

	bg := context.WithoutCancel(ctx)

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()

		var url string
		var err error
		switch intent.Kind {
		case types.MediaVideo:
			url, err = o.gw.GenerateVideoWithAuth(bg, intent.Prompt, o.selector)
		default:
			url, err = o.gw.GenerateImage(bg, intent.Prompt)
		}

		if err != nil {
			logging.OrchestratorError("chat media failed for %s: %v", sessionID, err)
			o.store.AmendMessage(sessionID, idx, store.MessageAmend{
				AppendText:      mediaApology,
				ClearGenerating: true,
			})
			o.notifyChanged()
			return
		}

		if !o.store.AmendMessage(sessionID, idx, store.MessageAmend{
			MediaURL:        url,
			ClearGenerating: true,
		}) {
			logging.OrchestratorDebug("chat media for %s dropped (message gone)", sessionID)
		}
		o.notifyChanged()
	}()
}
