package media_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/i474232898/quickspace/internal/media"
	"github.com/i474232898/quickspace/internal/media/mediatest"
)

func TestSelectActiveLocal(t *testing.T) {
	spotifyLocal := mediatest.NewSession("spotify", media.PlaybackLocal, media.StatePlaying, "a", "b")
	spotifyRemote := mediatest.NewSession("spotify", media.PlaybackRemote, media.StatePlaying, "a", "b")
	vlcLocal := mediatest.NewSession("vlc", media.PlaybackLocal, media.StatePlaying, "c", "d")
	vlcPaused := mediatest.NewSession("vlc", media.PlaybackLocal, media.StatePaused, "c", "d")
	noInfo := mediatest.NewSession("mpv", media.PlaybackLocal, media.StatePlaying, "e", "f")
	noInfo.SetInfo(nil)

	tests := []struct {
		name     string
		sessions []media.Controller
		want     media.Controller
	}{
		{"empty", nil, nil},
		{"single local", []media.Controller{vlcLocal}, vlcLocal},
		{"paused is skipped", []media.Controller{vlcPaused}, nil},
		{"missing info is skipped", []media.Controller{noInfo, vlcLocal}, vlcLocal},
		{"remote listed first excludes package", []media.Controller{spotifyRemote, spotifyLocal}, nil},
		{"remote listed after drops selection", []media.Controller{spotifyLocal, spotifyRemote}, nil},
		{"other package still selected", []media.Controller{spotifyRemote, spotifyLocal, vlcLocal}, vlcLocal},
		{"first local wins", []media.Controller{vlcLocal, spotifyLocal}, vlcLocal},
		{"remote only", []media.Controller{spotifyRemote}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := media.SelectActiveLocal(tt.sessions)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			assert.Same(t, tt.want, got)
		})
	}
}

func TestSameSession(t *testing.T) {
	a := mediatest.NewSession("vlc", media.PlaybackLocal, media.StatePlaying, "", "")
	b := mediatest.NewSession("vlc", media.PlaybackLocal, media.StatePlaying, "", "")
	c := mediatest.NewSession("mpv", media.PlaybackLocal, media.StatePlaying, "", "")

	assert.True(t, media.SameSession(a, a))
	assert.True(t, media.SameSession(a, b))
	assert.False(t, media.SameSession(a, c))
	assert.False(t, media.SameSession(nil, a))
	assert.False(t, media.SameSession(a, nil))
	assert.True(t, media.SameSession(nil, nil))
}

func TestStateOf(t *testing.T) {
	assert.Equal(t, media.StateNone, media.StateOf(nil))
	s := mediatest.NewSession("vlc", media.PlaybackLocal, media.StatePaused, "", "")
	assert.Equal(t, media.StatePaused, media.StateOf(s))
}
