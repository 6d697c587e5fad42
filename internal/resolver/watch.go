package resolver

import (
	"context"

	"github.com/eleasarchriso/spy-spotify/internal/track"
)

// Watch resolves snapshots in arrival order and sends one track per change.
// A snapshot equal to the previous one is skipped. Watch returns when the
// input is closed or ctx is done, and closes the returned channel.
func (r *Resolver) Watch(ctx context.Context, snapshots <-chan track.Snapshot) <-chan *track.Track {
	out := make(chan *track.Track)

	go func() {
		defer close(out)

		var last *track.Snapshot
		for {
			var s track.Snapshot
			var ok bool
			select {
			case <-ctx.Done():
				return
			case s, ok = <-snapshots:
				if !ok {
					return
				}
			}

			if last != nil && *last == s {
				continue
			}
			last = &s

			t := r.Resolve(ctx, s)
			select {
			case out <- t:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out
}
