package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var groupCmd = &cobra.Command{
	Use:   "group",
	Short: "Manage document groups",
	Long:  `Create, list or delete groups. Deleting a group detaches its documents.`,
}

var groupCreateCmd = &cobra.Command{
	Use:   "create [name]",
	Short: "Create a group",
	Args:  cobra.ExactArgs(1),
	RunE:  runGroupCreate,
}

var groupListCmd = &cobra.Command{
	Use:   "list",
	Short: "List groups",
	Args:  cobra.NoArgs,
	RunE:  runGroupList,
}

var groupDeleteCmd = &cobra.Command{
	Use:   "delete [group-id]",
	Short: "Delete a group",
	Args:  cobra.ExactArgs(1),
	RunE:  runGroupDelete,
}

func init() {
	groupCmd.AddCommand(groupCreateCmd)
	groupCmd.AddCommand(groupListCmd)
	groupCmd.AddCommand(groupDeleteCmd)
	rootCmd.AddCommand(groupCmd)
}

func runGroupCreate(cmd *cobra.Command, args []string) error {
	if groupService == nil {
		return errors.New("group service not configured")
	}

	group, err := groupService.Create(context.Background(), userID, args[0])
	if err != nil {
		return fmt.Errorf("failed to create group: %w", err)
	}

	cmd.Printf("Group %s created: %s\n", group.ID, group.Name)
	return nil
}

func runGroupList(cmd *cobra.Command, args []string) error {
	if groupService == nil {
		return errors.New("group service not configured")
	}

	groups, err := groupService.List(context.Background(), userID)
	if err != nil {
		return fmt.Errorf("failed to list groups: %w", err)
	}

	if len(groups) == 0 {
		cmd.Println("No groups.")
		return nil
	}

	for _, group := range groups {
		cmd.Printf("  %s  %s\n", group.ID, group.Name)
	}
	return nil
}

func runGroupDelete(cmd *cobra.Command, args []string) error {
	if groupService == nil {
		return errors.New("group service not configured")
	}

	if err := groupService.Delete(context.Background(), userID, args[0]); err != nil {
		return fmt.Errorf("failed to delete group: %w", err)
	}

	cmd.Printf("Group %s deleted.\n", args[0])
	return nil
}
