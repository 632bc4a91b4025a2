package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"

	"github.com/unimarket/authctx"
)

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// PrintState writes the projection as indented JSON, or as a short card for humans.
// The token is masked in the card.
func PrintState(w io.Writer, st authctx.State, human bool) error {
	if !human {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(st)
	}

	if st.User == nil {
		printSystemMessage(w, "Not logged in (tab %s).", st.TabID)
		return nil
	}
	fmt.Fprintf(w, "%s <%s>\n", st.FullName, st.Email)
	fmt.Fprintf(w, "  id:        %s\n", st.User.ID)
	fmt.Fprintf(w, "  role:      %s\n", st.Role)
	fmt.Fprintf(w, "  provider:  %s\n", st.User.LoginProvider)
	if st.PhoneNumber != "" {
		fmt.Fprintf(w, "  phone:     %s\n", st.PhoneNumber)
	}
	if st.AvatarURL != "" {
		fmt.Fprintf(w, "  avatar:    %s\n", st.AvatarURL)
	}
	fmt.Fprintf(w, "  confirmed: %t\n", st.User.EmailConfirmed)
	fmt.Fprintf(w, "  token:     %s\n", MaskToken(st.Token))
	fmt.Fprintf(w, "  tab:       %s\n", st.TabID)
	return nil
}

// MaskToken keeps the first and last characters of a credential.
func MaskToken(tok string) string {
	switch {
	case tok == "":
		return "(none)"
	case len(tok) <= 8:
		return "***"
	default:
		return tok[:4] + "..." + tok[len(tok)-4:]
	}
}
