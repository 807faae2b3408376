package vm

import (
	"context"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	units "github.com/docker/go-units"
	"github.com/projecteru2/core/log"
	"github.com/spf13/cobra"

	cmdcore "github.com/projecteru2/cloudagent/cmd/core"
	"github.com/projecteru2/cloudagent/gcloud"
	"github.com/projecteru2/cloudagent/gitutil"
	"github.com/projecteru2/cloudagent/sshtransport"
	"github.com/projecteru2/cloudagent/vm"
)

type Handler struct {
	cmdcore.BaseHandler
}

// initManager is the shared init for methods that drive the manager.
func (h Handler) initManager(cmd *cobra.Command) (context.Context, *vm.Manager, error) {
	ctx, conf, err := h.Init(cmd)
	if err != nil {
		return nil, nil, err
	}
	mgr, err := cmdcore.InitManager(conf)
	if err != nil {
		return nil, nil, err
	}
	return ctx, mgr, nil
}

// transport resolves connection info and returns a guest transport.
func (h Handler) transport(ctx context.Context, mgr *vm.Manager) (*sshtransport.Client, error) {
	info, err := mgr.ConnectionInfo(ctx)
	if err != nil {
		return nil, err
	}
	return sshtransport.New(info), nil
}

// List is read-only and identity-free: the fleet label scopes the query, so
// it must not trigger operator identity resolution.
func (h Handler) List(cmd *cobra.Command, _ []string) error {
	ctx, _, err := h.Init(cmd)
	if err != nil {
		return err
	}

	instances, err := vm.List(ctx, gcloud.New())
	if err != nil {
		return fmt.Errorf("list: %w", err)
	}
	if len(instances) == 0 {
		fmt.Println("No VMs found.")
		return nil
	}

	sort.Slice(instances, func(i, j int) bool { return instances[i].Name < instances[j].Name })

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "NAME\tZONE\tSTATUS\tOWNER\tPROTECTED\tEXTERNAL IP\tAGE")
	for _, inst := range instances {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			inst.Name,
			inst.ZoneName(),
			inst.Status,
			valueOrDash(inst.Labels["owner"]),
			valueOrDash(inst.Labels["skip_deletion"]),
			valueOrDash(inst.ExternalIP()),
			age(inst.Created()),
		)
	}
	w.Flush() //nolint:errcheck,gosec
	return nil
}

func valueOrDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func age(created time.Time) string {
	if created.IsZero() {
		return "-"
	}
	return units.HumanDuration(time.Since(created)) + " ago"
}

func (h Handler) Start(cmd *cobra.Command, _ []string) error {
	ctx, mgr, err := h.initManager(cmd)
	if err != nil {
		return err
	}
	return mgr.Start(ctx)
}

func (h Handler) Stop(cmd *cobra.Command, _ []string) error {
	ctx, mgr, err := h.initManager(cmd)
	if err != nil {
		return err
	}
	return mgr.Stop(ctx)
}

func (h Handler) Terminate(cmd *cobra.Command, _ []string) error {
	ctx, mgr, err := h.initManager(cmd)
	if err != nil {
		return err
	}
	ok, err := cmdcore.Confirm(fmt.Sprintf("About to terminate VM %s and all its resources. Continue?", mgr.Identity().Name))
	if err != nil {
		return err
	}
	if !ok {
		log.WithFunc("cmd.terminate").Info(ctx, "aborted")
		return nil
	}
	return mgr.Terminate(ctx)
}

func (h Handler) SSH(cmd *cobra.Command, _ []string) error {
	ctx, mgr, err := h.initManager(cmd)
	if err != nil {
		return err
	}
	tr, err := h.transport(ctx, mgr)
	if err != nil {
		return err
	}
	return tr.Interactive(ctx)
}

func (h Handler) SCP(cmd *cobra.Command, args []string) error {
	ctx, mgr, err := h.initManager(cmd)
	if err != nil {
		return err
	}
	tr, err := h.transport(ctx, mgr)
	if err != nil {
		return err
	}
	return tr.Copy(ctx, args[0], args[1])
}

func (h Handler) TF(cmd *cobra.Command, _ []string) error {
	ctx, mgr, err := h.initManager(cmd)
	if err != nil {
		return err
	}
	return mgr.Update(ctx)
}

func (h Handler) CreateVM(cmd *cobra.Command, _ []string) error {
	ctx, mgr, err := h.initManager(cmd)
	if err != nil {
		return err
	}
	force, _ := cmd.Flags().GetBool("force-create")
	return mgr.Ensure(ctx, force)
}

func (h Handler) Deploy(cmd *cobra.Command, args []string) error {
	ctx, mgr, err := h.initManager(cmd)
	if err != nil {
		return err
	}
	skipCreds, _ := cmd.Flags().GetBool("skip-creds")
	repos, err := h.repos(ctx, args)
	if err != nil {
		return err
	}
	return mgr.Deploy(ctx, repos, skipCreds)
}

// Root is the default action when the binary runs without a verb: make sure
// the VM exists, then deploy onto it.
func (h Handler) Root(cmd *cobra.Command, args []string) error {
	ctx, mgr, err := h.initManager(cmd)
	if err != nil {
		return err
	}
	forceCreate, _ := cmd.Flags().GetBool("force-create")
	skipCreate, _ := cmd.Flags().GetBool("skip-create")
	skipCreds, _ := cmd.Flags().GetBool("skip-creds")
	repos, err := h.repos(ctx, args)
	if err != nil {
		return err
	}
	return mgr.FullDeploy(ctx, repos, forceCreate, skipCreate, skipCreds)
}

// repos resolves the repositories to sync: explicit arguments win, otherwise
// the origin remote of the current directory. With neither the deploy would
// silently sync nothing, so failing beats a no-op.
func (h Handler) repos(ctx context.Context, args []string) ([]string, error) {
	if len(args) > 0 {
		return args, nil
	}
	return gitutil.DetectCurrentRepo(ctx)
}
