package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/tendant/simple-admin/pkg/simpleadmin"
)

// ConfirmHeader carries the operator's confirmation for destructive requests
const ConfirmHeader = "X-Confirm"

// requestConfirmer answers confirmation prompts from the request itself and
// remembers the last prompt so a declined request can echo it back.
type requestConfirmer struct {
	confirmed bool
	prompt    string
}

func (c *requestConfirmer) Confirm(_ context.Context, prompt string) bool {
	c.prompt = prompt
	return c.confirmed
}

// Confirmed reports whether r carries ?confirm=true or X-Confirm: true
func Confirmed(r *http.Request) bool {
	for _, raw := range []string{r.URL.Query().Get("confirm"), r.Header.Get(ConfirmHeader)} {
		if ok, err := strconv.ParseBool(raw); err == nil && ok {
			return true
		}
	}
	return false
}

func withRequestConfirmer(r *http.Request) (context.Context, *requestConfirmer) {
	c := &requestConfirmer{confirmed: Confirmed(r)}
	return simpleadmin.ContextWithConfirmer(r.Context(), c), c
}
