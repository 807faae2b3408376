package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"os/user"
	"strings"
	"syscall"

	"github.com/projecteru2/core/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	cmdcore "github.com/projecteru2/cloudagent/cmd/core"
	cmdothers "github.com/projecteru2/cloudagent/cmd/others"
	cmdvm "github.com/projecteru2/cloudagent/cmd/vm"
	"github.com/projecteru2/cloudagent/config"
)

var (
	cfgFile string
	conf    *config.Config
)

// envBindings maps config keys to the environment variables the tool has
// always honored.
var envBindings = map[string]string{
	"agent":             "AGENT",
	"zone":              "ZONE",
	"machine_type":      "MACHINE_TYPE",
	"cluster_name":      "CLUSTER_NAME",
	"ssh_key":           "SSH_KEY",
	"github_token":      "GITHUB_TOKEN",
	"skip_deletion":     "SKIP_DELETION",
	"permissions":       "PERMISSIONS",
	"additional_ip":     "ADDITIONAL_IP",
	"username":          "USERNAME",
	"company":           "COMPANY",
	"boot_wait_seconds": "BOOT_WAIT_SECONDS",
}

var rootCmd = func() *cobra.Command {
	confProvider := func() *config.Config { return conf }
	handler := cmdvm.Handler{BaseHandler: cmdcore.BaseHandler{ConfProvider: confProvider}}

	cmd := &cobra.Command{
		Use:   "cloud-agent [REPO...]",
		Short: "cloud-agent - provision a personal dev VM and deploy a coding agent onto it",
		// Repo URLs are valid positional args for the default deploy, they
		// must not be mistaken for unknown subcommands.
		Args: cobra.ArbitraryArgs,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return initConfig(commandContext(cmd))
		},
		RunE: handler.Root,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path")
	cmd.PersistentFlags().String("agent", "", "coding agent to deploy (auggie, claude, codex)")
	cmd.PersistentFlags().String("zone", "", "provider zone for the VM")
	cmd.PersistentFlags().String("machine-type", "", "VM machine type")
	cmd.PersistentFlags().String("cluster-name", "", "GKE cluster to grant access to")
	cmd.PersistentFlags().String("ssh-key", "", "private key for guest login and GitHub")
	cmd.PersistentFlags().String("github-token", "", "GitHub PAT value or path to a file holding it")
	cmd.PersistentFlags().String("skip-deletion", "", "label the VM protected from reaper jobs (yes/no)")
	cmd.PersistentFlags().String("permissions", "", "comma-separated extra permissions (compute,gke,storage,iam,admin)")
	cmd.PersistentFlags().String("additional-ip", "", "extra address for the firewall allow-list")
	cmd.PersistentFlags().String("username", "", "override the derived operator identity")
	cmd.PersistentFlags().String("company", "", "company suffix for the owner label")

	for key, env := range envBindings {
		if flag := cmd.PersistentFlags().Lookup(strings.ReplaceAll(key, "_", "-")); flag != nil {
			_ = viper.BindPFlag(key, flag)
		}
		_ = viper.BindEnv(key, env)
	}

	cmd.Flags().Bool("force-create", false, "apply even if the VM already exists")
	cmd.Flags().Bool("skip-create", false, "fail instead of creating when the VM is missing")
	cmd.Flags().Bool("skip-creds", false, "do not transfer any credentials")

	for _, c := range cmdvm.Commands(handler) {
		cmd.AddCommand(c)
	}
	for _, c := range cmdothers.Commands(cmdothers.Handler{}) {
		cmd.AddCommand(c)
	}

	return cmd
}()

func initConfig(ctx context.Context) error {
	conf = config.DefaultConfig()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}
	_ = viper.ReadInConfig() // optional; missing file is OK

	if err := viper.Unmarshal(conf); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}

	conf.LocalUser = localUser()

	return log.SetupLog(ctx, &conf.Log, "")
}

// localUser resolves the operating-system login name once; everything
// downstream reads it from the config.
func localUser() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	return os.Getenv("USER")
}

func commandContext(cmd *cobra.Command) context.Context {
	if cmd != nil && cmd.Context() != nil {
		return cmd.Context()
	}
	return context.Background()
}

func newCommandContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// Execute is the main entry point called from main.go.
func Execute() error {
	ctx, cancel := newCommandContext()
	defer cancel()
	return rootCmd.ExecuteContext(ctx)
}
