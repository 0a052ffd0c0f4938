package cli

import (
	"context"

	"github.com/gptscript-ai/cmd"
)

func Main() {
	// No signal handling: the supervised command is only ever stopped by its
	// timeout.
	cmd.MainCtx(context.Background(), New())
}
