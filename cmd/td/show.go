package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/taskdot/taskdot/internal/hierarchy"
	"github.com/taskdot/taskdot/internal/task"
	"github.com/taskdot/taskdot/internal/tracker"
	"github.com/taskdot/taskdot/internal/ui"
)

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show the full record of one task",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		tr, closeStore, err := openTracker()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer closeStore()

		t, err := tr.GetTask(context.Background(), args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Print(ui.TaskDetail(t))
	},
}

var (
	listStatus    string
	listReadiness string
	listTag       string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks in insertion order",
	Run: func(cmd *cobra.Command, args []string) {
		tr, closeStore, err := openTracker()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer closeStore()

		tasks, err := tr.ListTasks(context.Background(), tracker.ListFilter{
			Status:    task.Status(listStatus),
			Readiness: task.Readiness(listReadiness),
			Tag:       listTag,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if len(tasks) == 0 {
			fmt.Println("No tasks found.")
			return
		}
		for _, t := range tasks {
			fmt.Println(ui.TaskLine(t))
		}
	},
}

var treeCmd = &cobra.Command{
	Use:   "tree",
	Short: "Show the task hierarchy",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		tr, closeStore, err := openTracker()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer closeStore()

		tasks, err := tr.ListTasks(context.Background(), tracker.ListFilter{})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if len(tasks) == 0 {
			fmt.Println("No tasks found.")
			return
		}

		tree, err := hierarchy.Build(tasks, log.New(os.Stderr, "", 0))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Print(ui.Tree(tree))
	},
}

func init() {
	listCmd.Flags().StringVar(&listStatus, "status", "", "filter by status")
	listCmd.Flags().StringVar(&listReadiness, "readiness", "", "filter by readiness")
	listCmd.Flags().StringVarP(&listTag, "tag", "t", "", "filter by tag")
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(treeCmd)
}
