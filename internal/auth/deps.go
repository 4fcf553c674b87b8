package auth

import (
	"crypto/rand"
	"io"
	"time"

	"github.com/dropDatabas3/gatehouse/internal/store"
)

// Deps are the injected collaborators shared by the credential managers.
// Tests swap in a fake clock and a deterministic random source.
type Deps struct {
	Store *store.File
	Clock func() time.Time
	Rand  io.Reader
}

func (d Deps) withDefaults() Deps {
	if d.Clock == nil {
		d.Clock = time.Now
	}
	if d.Rand == nil {
		d.Rand = rand.Reader
	}
	return d
}
