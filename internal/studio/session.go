// Package studio holds the per-browser render session: reference images, the
// prompt, the single generation result and the Idle/Loading/Success/Error
// state machine that ties them together.
package studio

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"renderstudio/internal/domain"
	"renderstudio/internal/domain/jsoncfg"
	"renderstudio/internal/imagedata"
	"renderstudio/internal/infra"
)

// ErrStale is returned by Attempt.Run when the session moved on (ClearAll)
// while the request was in flight. The outcome was discarded.
var ErrStale = errors.New("studio: generation outcome discarded")

// Generator performs one image-edit call.
type Generator interface {
	Generate(ctx context.Context, prompt string, images []imagedata.Payload) (imagedata.Payload, error)
	HasCredentials() bool
}

// Exporter persists exported results.
type Exporter interface {
	Write(ctx context.Context, key string, data []byte) (string, error)
}

// Options are shared by every session created from them.
type Options struct {
	Generator Generator
	Catalog   *jsoncfg.Catalog
	Logger    *infra.Logger
	Now       func() time.Time
}

// Snapshot is a consistent read of the session for rendering.
type Snapshot struct {
	ID          string                  `json:"id"`
	Phase       domain.Phase            `json:"phase"`
	Message     string                  `json:"message,omitempty"`
	Images      []domain.ReferenceImage `json:"images"`
	ImageCount  int                     `json:"image_count"`
	MaxImages   int                     `json:"max_images"`
	Prompt      string                  `json:"prompt"`
	Result      imagedata.Payload       `json:"result,omitempty"`
	Affordances domain.Affordances      `json:"affordances"`
}

// Session is safe for concurrent use. The generation call itself runs
// without holding the lock.
type Session struct {
	id      string
	gen     Generator
	catalog *jsoncfg.Catalog
	logger  infra.Logger
	now     func() time.Time

	mu        sync.Mutex
	images    *ImageStore
	prompt    PromptBuilder
	result    imagedata.Payload
	status    domain.Status
	inflight  uint64
	lastToken uint64
}

func NewSession(id string, opts Options) *Session {
	logger := opts.Logger
	if logger == nil {
		logger = infra.DiscardLogger()
	}
	catalog := opts.Catalog
	if catalog == nil {
		catalog = &jsoncfg.Catalog{}
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Session{
		id:      id,
		gen:     opts.Generator,
		catalog: catalog,
		logger:  logger.With().Str("session_id", id).Logger(),
		now:     now,
		images:  NewImageStore(),
		status:  domain.IdleStatus(),
	}
}

func (s *Session) ID() string {
	return s.id
}

// Status returns the current state.
func (s *Session) Status() domain.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Snapshot returns a copy of everything the view needs.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		ID:          s.id,
		Phase:       s.status.Phase,
		Message:     s.status.Message,
		Images:      s.images.List(),
		ImageCount:  s.images.Len(),
		MaxImages:   domain.MaxReferenceImages,
		Prompt:      s.prompt.Text(),
		Result:      s.result,
		Affordances: s.affordancesLocked(),
	}
}

func (s *Session) affordancesLocked() domain.Affordances {
	loading := s.status.Loading()
	return domain.Affordances{
		CanAddImage:   !loading && s.images.Len() < domain.MaxReferenceImages,
		CanGenerate:   s.readyLocked() == nil,
		CanDownload:   s.result != "",
		CanUseAsInput: !loading && s.result != "",
	}
}

func (s *Session) readyLocked() error {
	if s.status.Loading() {
		return domain.ErrBusy
	}
	if s.images.Len() == 0 || !s.prompt.Usable() {
		return domain.ErrNotReady
	}
	return nil
}

// AddImage decodes an uploaded file and appends it. Capacity overflow leaves
// the session untouched; an undecodable file moves it to Error. The lock is
// held for the decode so no generation can start meanwhile.
func (s *Session) AddImage(ctx context.Context, data []byte) (domain.ReferenceImage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status.Loading() {
		return domain.ReferenceImage{}, domain.ErrBusy
	}
	img, err := s.images.Add(ctx, data)
	if errors.Is(err, domain.ErrFileDecode) {
		s.status = domain.ErrorStatus(domain.Message(err))
		s.logger.Warn().Err(err).Msg("upload rejected")
	}
	return img, err
}

// RemoveImage deletes an image by id; unknown ids are a no-op.
func (s *Session) RemoveImage(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status.Loading() {
		return domain.ErrBusy
	}
	s.images.Remove(id)
	return nil
}

func (s *Session) SetPrompt(text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status.Loading() {
		return domain.ErrBusy
	}
	s.prompt.Set(text)
	return nil
}

func (s *Session) AppendPrompt(text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status.Loading() {
		return domain.ErrBusy
	}
	s.prompt.Append(text)
	return nil
}

// ApplyPreset replaces the prompt with the preset text.
func (s *Session) ApplyPreset(key string) error {
	preset, ok := s.catalog.Preset(key)
	if !ok {
		return fmt.Errorf("preset %q: %w", key, domain.ErrNotFound)
	}
	return s.SetPrompt(preset.Prompt)
}

// ApplyAdjustment appends the adjustment text to the prompt.
func (s *Session) ApplyAdjustment(key string) error {
	adj, ok := s.catalog.Adjustment(key)
	if !ok {
		return fmt.Errorf("adjustment %q: %w", key, domain.ErrNotFound)
	}
	return s.AppendPrompt(adj.Text)
}

// Attempt is one generation request that has already moved the session into
// Loading. Run performs the call and applies the outcome.
type Attempt struct {
	session *Session
	token   uint64
	prompt  string
	images  []imagedata.Payload
}

// Begin validates the preconditions and enters Loading. Without images or a
// usable prompt it returns ErrNotReady and changes nothing. A missing
// credential moves the session straight to Error.
func (s *Session) Begin() (*Attempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.readyLocked(); err != nil {
		return nil, err
	}
	if s.gen == nil || !s.gen.HasCredentials() {
		s.status = domain.ErrorStatus(domain.MessageMissingCredential)
		s.logger.Warn().Msg("generation blocked: missing credential")
		return nil, domain.ErrMissingCredential
	}
	s.lastToken++
	s.inflight = s.lastToken
	s.status = domain.Status{Phase: domain.PhaseLoading}
	s.logger.Info().Uint64("token", s.inflight).Int("images", s.images.Len()).Msg("generation started")
	return &Attempt{
		session: s,
		token:   s.inflight,
		prompt:  s.prompt.Text(),
		images:  s.images.Payloads(),
	}, nil
}

// Run calls the generator and applies the result unless the session was
// cleared in the meantime, in which case ErrStale is returned.
func (a *Attempt) Run(ctx context.Context) error {
	start := time.Now()
	out, err := a.session.gen.Generate(ctx, a.prompt, a.images)
	return a.session.finish(a.token, out, err, time.Since(start))
}

func (s *Session) finish(token uint64, out imagedata.Payload, genErr error, took time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if token != s.inflight {
		s.logger.Info().Uint64("token", token).Err(genErr).Msg("discarding stale generation outcome")
		return ErrStale
	}
	s.inflight = 0
	if genErr != nil {
		s.status = domain.ErrorStatus(domain.Message(genErr))
		s.logger.Error().Err(genErr).Dur("took", took).Msg("generation failed")
		return genErr
	}
	s.result = out
	s.status = domain.Status{Phase: domain.PhaseSuccess}
	s.logger.Info().Dur("took", took).Msg("generation succeeded")
	return nil
}

// Generate runs a whole attempt synchronously.
func (s *Session) Generate(ctx context.Context) error {
	attempt, err := s.Begin()
	if err != nil {
		return err
	}
	return attempt.Run(ctx)
}

// ClearAll resets the session from any state. An in-flight request keeps
// running but its outcome is ignored.
func (s *Session) ClearAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inflight != 0 {
		s.logger.Info().Uint64("token", s.inflight).Msg("clear invalidated in-flight generation")
	}
	s.images.Clear()
	s.prompt.Clear()
	s.result = ""
	s.status = domain.IdleStatus()
	s.inflight = 0
}

// UseAsInput promotes the result to be the only reference image.
func (s *Session) UseAsInput() (domain.ReferenceImage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status.Loading() {
		return domain.ReferenceImage{}, domain.ErrBusy
	}
	if s.result == "" {
		return domain.ReferenceImage{}, domain.ErrNoResult
	}
	img, err := s.images.ReplaceWith(s.result)
	if err != nil {
		return domain.ReferenceImage{}, err
	}
	s.result = ""
	s.status = domain.IdleStatus()
	return img, nil
}

// Download returns the result bytes under a timestamped file name. The
// session state is unchanged unless the result cannot be decoded.
func (s *Session) Download() (domain.Export, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exportLocked()
}

func (s *Session) exportLocked() (domain.Export, error) {
	if s.result == "" {
		return domain.Export{}, domain.ErrNoResult
	}
	mimeType, data, err := imagedata.Decode(s.result)
	if err != nil {
		err = fmt.Errorf("%w: %v", domain.ErrExport, err)
		if !s.status.Loading() {
			s.status = domain.ErrorStatus(domain.Message(err))
		}
		return domain.Export{}, err
	}
	return domain.Export{
		Filename: fmt.Sprintf("mr-render-%d.png", s.now().UnixMilli()),
		MIME:     mimeType,
		Data:     data,
	}, nil
}

// Export writes the result through store and returns where it landed.
func (s *Session) Export(ctx context.Context, store Exporter) (string, error) {
	exp, err := s.Download()
	if err != nil {
		return "", err
	}
	path, err := store.Write(ctx, exp.Filename, exp.Data)
	if err != nil {
		err = fmt.Errorf("%w: %v", domain.ErrExport, err)
		s.mu.Lock()
		if !s.status.Loading() {
			s.status = domain.ErrorStatus(domain.Message(err))
		}
		s.mu.Unlock()
		s.logger.Error().Err(err).Msg("export failed")
		return "", err
	}
	s.logger.Info().Str("path", path).Int("bytes", len(exp.Data)).Msg("result exported")
	return path, nil
}
