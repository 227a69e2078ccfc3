package cli

import (
	"context"
	"fmt"

	"cloud.google.com/go/civil"
	"github.com/spf13/cobra"

	"github.com/example/progress/internal/engine"
	sr "github.com/example/progress/internal/spaced_repetition"
	"github.com/example/progress/internal/store"
)

// session is one open store plus the engine loaded from it.
type session struct {
	store store.Store
	eng   *engine.Engine
}

func (o *RootOptions) openStore(ctx context.Context) (store.Store, error) {
	return store.Open(ctx, store.Options{
		Backend:  o.cfg.Store.Backend,
		Location: o.cfg.StoreLocation(),
		Logger:   o.logger,
	})
}

// openSession opens the configured store and loads the engine from it.
func (o *RootOptions) openSession(ctx context.Context) (*session, error) {
	st, err := o.openStore(ctx)
	if err != nil {
		return nil, err
	}
	sm := sr.NewSM2()
	sm.MaxInterval = o.cfg.Review.MaxIntervalDays

	eng := engine.New(st,
		engine.WithClock(o.clock),
		engine.WithLogger(o.logger),
		engine.WithThresholds(o.cfg.Milestones),
		engine.WithSM2(sm),
	)
	if err := eng.Load(ctx); err != nil {
		_ = st.Close()
		return nil, err
	}
	return &session{store: st, eng: eng}, nil
}

func (s *session) Close() error {
	return s.store.Close()
}

// withSession runs fn against a freshly loaded engine and closes the store.
func (o *RootOptions) withSession(cmd *cobra.Command, fn func(eng *engine.Engine, out *OutputFormatter) error) error {
	s, err := o.openSession(cmd.Context())
	if err != nil {
		return err
	}
	defer s.Close()
	return fn(s.eng, o.formatter(cmd))
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:  o.Format,
		Writer:  cmd.OutOrStdout(),
		Verbose: o.Verbose,
	}
}

// parseDate parses an optional --date flag; empty means today.
func parseDate(flag, value string) (civil.Date, error) {
	if value == "" {
		return civil.Date{}, nil
	}
	d, err := civil.ParseDate(value)
	if err != nil {
		return civil.Date{}, NewExitError(ExitCommandError, fmt.Sprintf("invalid --%s %q: want YYYY-MM-DD", flag, value))
	}
	return d, nil
}
