package app

import (
	"context"
	"log/slog"

	"importfix/internal/core/watcher"
)

// Watch re-analyses root every time a source file under it changes and
// hands the fresh analysis to onUpdate. It never applies fixes and returns
// once ctx is done.
func (a *App) Watch(ctx context.Context, root string, onUpdate func(*Analysis, []string)) error {
	root, err := ResolveRoot(root)
	if err != nil {
		return err
	}

	w, err := watcher.NewWatcher(watcher.Options{
		Debounce:     a.Config.Watch.Debounce,
		ExcludeDirs:  a.Config.Exclude.Dirs,
		ExcludeFiles: a.Config.Exclude.Files,
		Extensions:   a.Config.Python.Extensions,
	}, func(paths []string) {
		if ctx.Err() != nil {
			return
		}
		changed := make([]string, 0, len(paths))
		for _, p := range paths {
			changed = append(changed, relativePath(root, p))
		}
		slog.Info("detected changes", "count", len(changed))

		analysis, err := a.Analyze(ctx, root)
		if err != nil {
			if ctx.Err() == nil {
				slog.Error("re-analysis failed", "error", err)
			}
			return
		}
		onUpdate(analysis, changed)
	})
	if err != nil {
		return err
	}

	if err := w.Watch([]string{root}); err != nil {
		_ = w.Close()
		return err
	}
	slog.Info("watching for changes", "root", root)

	<-ctx.Done()
	return w.Close()
}
