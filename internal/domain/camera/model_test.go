package camera

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStreamURL(t *testing.T) {
	assert.Equal(t, "http://127.0.0.1:8000/stream/Salon", StreamURL("http://127.0.0.1:8000", "Salon"))
	assert.Equal(t, "http://127.0.0.1:8000/stream/Salon", StreamURL("http://127.0.0.1:8000/", "Salon"))
	assert.Equal(t, "http://h/stream/Entr%C3%A9e", StreamURL("http://h", "Entrée"))
	assert.Equal(t, "http://h/stream/a%2Fb", StreamURL("http://h", "a/b"))
}

func TestNewDescriptorIsDeterministic(t *testing.T) {
	a := NewDescriptor("http://h", "Cuisine")
	b := NewDescriptor("http://h", "Cuisine")
	assert.Equal(t, a, b)
	assert.Equal(t, Label("Cuisine"), a.Label)
}

func TestLabelValidate(t *testing.T) {
	assert.NoError(t, Label("Salon").Validate())
	assert.Error(t, Label("").Validate())
	assert.Error(t, Label("   ").Validate())
	assert.NoError(t, Label(" porte/nord ").Validate())
	assert.NoError(t, Label(strings.Repeat("a", 128)).Validate())
	assert.Error(t, Label(strings.Repeat("a", 129)).Validate())
}

func TestRegistrationValidate(t *testing.T) {
	ok := Registration{Label: "Salon", IPAddress: "rtsp://x"}
	assert.NoError(t, ok.Validate())

	// the address format is deliberately not checked
	free := Registration{Label: "Salon", IPAddress: "0"}
	assert.NoError(t, free.Validate())

	missing := Registration{Label: "Salon"}
	assert.Error(t, missing.Validate())
}

func TestListWithoutRemovesEveryMatch(t *testing.T) {
	l := List{
		NewDescriptor("http://h", "A"),
		NewDescriptor("http://h", "B"),
		NewDescriptor("http://h", "A"),
	}
	out := l.Without("A")
	assert.Equal(t, []Label{"B"}, out.Labels())
	assert.Len(t, l, 3, "receiver must not be modified")
	assert.True(t, l.Has("A"))
	assert.False(t, out.Has("A"))
}

func TestListCloneNeverNil(t *testing.T) {
	var l List
	assert.NotNil(t, l.Clone())
	assert.Empty(t, l.Clone())
}
