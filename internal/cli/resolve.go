package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"resolvent/internal/app"
	"resolvent/internal/core"
	"resolvent/internal/policies"
	"resolvent/internal/types"
)

type resolveOptions struct {
	Universe  string
	Request   string
	Overrides []string
	DebugDir  string
}

func newResolveCommand() *cobra.Command {
	opts := resolveOptions{}
	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Resolve a request against a universe snapshot",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runResolve(cmd.Context(), cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Universe, "universe", "", "Universe snapshot path")
	cmd.Flags().StringVar(&opts.Request, "request", "", "Request snapshot path")
	cmd.Flags().StringSliceVar(&opts.Overrides, "override", nil, "Override directive pattern=action[:value] (repeatable)")
	cmd.Flags().StringVar(&opts.DebugDir, "debug-dir", "", "Directory to write .cudf/.dot debug dumps")

	_ = viper.BindPFlag("universe", cmd.Flags().Lookup("universe"))
	_ = viper.BindPFlag("request", cmd.Flags().Lookup("request"))
	_ = viper.BindPFlag("override", cmd.Flags().Lookup("override"))
	_ = viper.BindPFlag("debug_dir", cmd.Flags().Lookup("debug-dir"))

	return cmd
}

func runResolve(ctx context.Context, cmd *cobra.Command, opts resolveOptions) error {
	overrides, err := parseOverrideFlags(resolveStrings(cmd, opts.Overrides, "override", "override"))
	if err != nil {
		return err
	}

	service := newAppService()
	result, err := service.Resolve(ctx, app.ResolveRequest{
		UniversePath: resolveString(cmd, opts.Universe, "universe", "universe"),
		RequestPath:  resolveString(cmd, opts.Request, "request", "request"),
		Overrides:    overrides,
		DebugDir:     resolveString(cmd, opts.DebugDir, "debug_dir", "debug-dir"),
	})
	if err != nil {
		return err
	}

	if result.Explained {
		for _, line := range result.Lines {
			fmt.Println(line)
		}
		return errbuilder.New().
			WithCode(errbuilder.CodeFailedPrecondition).
			WithMsg("request is unsatisfiable")
	}

	fmt.Printf("install=%d reinstall=%d upgrade=%d downgrade=%d remove=%d\n",
		result.Install, result.Reinstall, result.Upgrade, result.Downgrade, result.Remove)
	return nil
}

func newAppService() app.Service {
	return app.NewService(core.NewGopherSatAdapter())
}

// parseOverrideFlags parses "pattern=action" or "pattern=action:value"
// directives, the CLI surface for policies.OverrideDirective.
func parseOverrideFlags(raw []string) ([]policies.OverrideDirective, error) {
	directives := make([]policies.OverrideDirective, 0, len(raw))
	for _, entry := range raw {
		pattern, rest, ok := strings.Cut(entry, "=")
		if !ok || pattern == "" || rest == "" {
			return nil, errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg(fmt.Sprintf("invalid override directive: %s", entry))
		}
		action, value, _ := strings.Cut(rest, ":")
		directives = append(directives, policies.OverrideDirective{
			Pattern: pattern,
			Action:  types.OverrideAction(action),
			Value:   value,
		})
	}
	return directives, nil
}
