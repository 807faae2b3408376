package vm

import "github.com/spf13/cobra"

// Actions defines the VM lifecycle operations.
type Actions interface {
	List(cmd *cobra.Command, args []string) error
	Start(cmd *cobra.Command, args []string) error
	Stop(cmd *cobra.Command, args []string) error
	Terminate(cmd *cobra.Command, args []string) error
	SSH(cmd *cobra.Command, args []string) error
	SCP(cmd *cobra.Command, args []string) error
	TF(cmd *cobra.Command, args []string) error
	CreateVM(cmd *cobra.Command, args []string) error
	Deploy(cmd *cobra.Command, args []string) error
}

// Commands builds the lifecycle command set.
func Commands(h Actions) []*cobra.Command {
	deployCmd := &cobra.Command{
		Use:   "deploy [REPO...]",
		Short: "Push credentials and sync repositories onto the existing VM",
		RunE:  h.Deploy,
	}
	deployCmd.Flags().Bool("skip-creds", false, "do not transfer any credentials")

	createCmd := &cobra.Command{
		Use:   "create-vm",
		Short: "Provision the VM without deploying anything onto it",
		Args:  cobra.NoArgs,
		RunE:  h.CreateVM,
	}
	createCmd.Flags().Bool("force-create", false, "apply even if the VM already exists")

	return []*cobra.Command{
		{
			Use:     "list",
			Aliases: []string{"ls"},
			Short:   "List all VMs in the fleet",
			Args:    cobra.NoArgs,
			RunE:    h.List,
		},
		{
			Use:   "start",
			Short: "Start your stopped VM",
			Args:  cobra.NoArgs,
			RunE:  h.Start,
		},
		{
			Use:   "stop",
			Short: "Stop your VM without deleting it",
			Args:  cobra.NoArgs,
			RunE:  h.Stop,
		},
		{
			Use:   "terminate",
			Short: "Delete your VM and everything provisioned with it",
			Args:  cobra.NoArgs,
			RunE:  h.Terminate,
		},
		{
			Use:   "ssh",
			Short: "Open a tmux session on your VM",
			Args:  cobra.NoArgs,
			RunE:  h.SSH,
		},
		{
			Use:   "scp SRC DST",
			Short: "Copy files to or from the VM (prefix the remote side with vm:)",
			Args:  cobra.ExactArgs(2), //nolint:mnd
			RunE:  h.SCP,
		},
		{
			Use:   "tf",
			Short: "Re-apply provisioning (refreshes the firewall allow-list)",
			Args:  cobra.NoArgs,
			RunE:  h.TF,
		},
		createCmd,
		deployCmd,
	}
}
