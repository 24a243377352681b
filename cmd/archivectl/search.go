package main

import (
	"context"
	"encoding/json"
	"strings"

	"heritage-archive-be/internal/bootstrap"
	"heritage-archive-be/internal/dto"
	"heritage-archive-be/pkg/rag/response"

	"github.com/spf13/cobra"
)

func newSearchCmd() *cobra.Command {
	var thread string

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Run one search turn and print the JSON response",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := &dto.SearchRequest{Query: strings.Join(args, " "), ThreadId: thread}
			return withContainer(func(ctx context.Context, c *bootstrap.Container) error {
				res, err := c.SearchService.Search(ctx, req)
				if err != nil {
					return err
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(res)
			})
		},
	}
	cmd.Flags().StringVar(&thread, "thread", "", "conversation thread id (default thread when empty)")
	return cmd
}

func newStreamCmd() *cobra.Command {
	var thread string

	cmd := &cobra.Command{
		Use:   "stream <query>",
		Short: "Run one search turn and print each stream event as it arrives",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := &dto.SearchRequest{Query: strings.Join(args, " "), ThreadId: thread}
			return withContainer(func(ctx context.Context, c *bootstrap.Container) error {
				out := cmd.OutOrStdout()
				return c.SearchService.SearchStream(ctx, req, func(e response.Event) error {
					return renderEvent(out, e)
				})
			})
		},
	}
	cmd.Flags().StringVar(&thread, "thread", "", "conversation thread id (default thread when empty)")
	return cmd
}
