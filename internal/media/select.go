package media

import "slices"

// SelectActiveLocal picks the playing local session to follow. A package that
// is also playing remotely is never picked, whichever of the two sessions is
// listed first. Returns nil when no session qualifies.
func SelectActiveLocal(sessions []Controller) Controller {
	var local Controller
	var remotePackages []string

	for _, c := range sessions {
		info := c.PlaybackInfo()
		if info == nil {
			continue
		}
		state := c.PlaybackState()
		if state == nil || state.State != StatePlaying {
			continue
		}

		switch info.Type {
		case PlaybackRemote:
			if local != nil && local.PackageName() == c.PackageName() {
				local = nil
			}
			if !slices.Contains(remotePackages, c.PackageName()) {
				remotePackages = append(remotePackages, c.PackageName())
			}
		case PlaybackLocal:
			if local == nil && !slices.Contains(remotePackages, c.PackageName()) {
				local = c
			}
		}
	}
	return local
}

// SameSession reports whether a and b control the same session.
func SameSession(a, b Controller) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return a.ControlsSameSession(b)
}
