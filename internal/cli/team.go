package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

// NewTeamCmd создаёт группу команд для управления командами.
func NewTeamCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "team",
		Short: "Manage teams, members and owned resources",
	}

	cmd.AddCommand(
		newTeamListCmd(clientFn, outputFn),
		newTeamCreateCmd(clientFn, outputFn),
		newTeamShowCmd(clientFn, outputFn),
		newTeamUpdateCmd(clientFn, outputFn),
		newTeamDeleteCmd(clientFn, outputFn),
		newTeamMemberCmd(clientFn, outputFn),
		newTeamResourceCmd(clientFn, outputFn),
	)

	return cmd
}

var teamHeaders = []string{"ID", "NAME", "DESCRIPTION", "CREATED"}

func teamRow(t TeamResponse) []string {
	return []string{strconv.FormatInt(t.ID, 10), t.Name, t.Description, t.CreatedAt}
}

func newTeamListCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all teams",
		RunE: func(cmd *cobra.Command, args []string) error {
			teams, err := clientFn().ListTeams()
			if err != nil {
				return err
			}

			rows := make([][]string, len(teams))
			for i, t := range teams {
				rows[i] = teamRow(t)
			}

			outputFn().Print(teamHeaders, rows, teams)
			return nil
		},
	}
}

func newTeamCreateCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var name, description string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new team",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := outputFn()

			team, err := clientFn().CreateTeam(name, description)
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Team created: %d", team.ID))
			out.Print(teamHeaders, [][]string{teamRow(*team)}, team)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Team name (required)")
	cmd.Flags().StringVar(&description, "description", "", "Team description")
	cmd.MarkFlagRequired("name")

	return cmd
}

func newTeamShowCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show team details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			team, err := clientFn().GetTeam(args[0])
			if err != nil {
				return err
			}

			outputFn().Print(teamHeaders, [][]string{teamRow(*team)}, team)
			return nil
		},
	}
}

func newTeamUpdateCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var name, description string

	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Update a team",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := UpdateTeamRequest{}
			if cmd.Flags().Changed("name") {
				req.Name = &name
			}
			if cmd.Flags().Changed("description") {
				req.Description = &description
			}
			if req.Name == nil && req.Description == nil {
				return fmt.Errorf("nothing to update: set --name or --description")
			}

			out := outputFn()

			team, err := clientFn().UpdateTeam(args[0], req)
			if err != nil {
				return err
			}

			out.Success("Team updated")
			out.Print(teamHeaders, [][]string{teamRow(*team)}, team)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "New team name")
	cmd.Flags().StringVar(&description, "description", "", "New description")

	return cmd
}

func newTeamDeleteCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a team",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := clientFn().DeleteTeam(args[0]); err != nil {
				return err
			}

			outputFn().Success(fmt.Sprintf("Team deleted: %s", args[0]))
			return nil
		},
	}
}

// --- Members ---

func newTeamMemberCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "member",
		Short: "Manage team members",
	}

	headers := []string{"USER", "ROLE", "ADDED"}

	list := &cobra.Command{
		Use:   "list TEAM_ID",
		Short: "List team members",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			members, err := clientFn().ListMembers(args[0])
			if err != nil {
				return err
			}

			rows := make([][]string, len(members))
			for i, m := range members {
				rows[i] = []string{m.UserID, m.Role, m.AddedAt}
			}

			outputFn().Print(headers, rows, members)
			return nil
		},
	}

	var role string
	add := &cobra.Command{
		Use:   "add TEAM_ID USER_ID",
		Short: "Add a member to a team",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := outputFn()

			member, err := clientFn().AddMember(args[0], args[1], role)
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Member added: %s", member.UserID))
			out.Print(headers, [][]string{{member.UserID, member.Role, member.AddedAt}}, member)
			return nil
		},
	}
	add.Flags().StringVar(&role, "role", "", "Member role: OWNER or MEMBER (default MEMBER)")

	remove := &cobra.Command{
		Use:   "remove TEAM_ID USER_ID",
		Short: "Remove a member from a team",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := clientFn().RemoveMember(args[0], args[1]); err != nil {
				return err
			}

			outputFn().Success(fmt.Sprintf("Member removed: %s", args[1]))
			return nil
		},
	}

	cmd.AddCommand(list, add, remove)
	return cmd
}

// --- Resources ---

func newTeamResourceCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resource",
		Short: "Manage resources owned by a team",
	}

	headers := []string{"TYPE", "ID", "ADDED"}

	list := &cobra.Command{
		Use:   "list TEAM_ID",
		Short: "List team resources",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resources, err := clientFn().ListResources(args[0])
			if err != nil {
				return err
			}

			rows := make([][]string, len(resources))
			for i, r := range resources {
				rows[i] = []string{r.ResourceType, r.ResourceID, r.AddedAt}
			}

			outputFn().Print(headers, rows, resources)
			return nil
		},
	}

	add := &cobra.Command{
		Use:   "add TEAM_ID TYPE RESOURCE_ID",
		Short: "Assign a resource (CLUSTER, DAG, SPEC) to a team",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := outputFn()

			res, err := clientFn().AddResource(args[0], args[1], args[2])
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Resource added: %s/%s", res.ResourceType, res.ResourceID))
			out.Print(headers, [][]string{{res.ResourceType, res.ResourceID, res.AddedAt}}, res)
			return nil
		},
	}

	remove := &cobra.Command{
		Use:   "remove TEAM_ID TYPE RESOURCE_ID",
		Short: "Unassign a resource from a team",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := clientFn().RemoveResource(args[0], args[1], args[2]); err != nil {
				return err
			}

			outputFn().Success(fmt.Sprintf("Resource removed: %s/%s", args[1], args[2]))
			return nil
		},
	}

	cmd.AddCommand(list, add, remove)
	return cmd
}
