package main

import (
	"context"
	"encoding/json"
	"fmt"
	"mime"
	"os"
	"path/filepath"

	"heritage-archive-be/internal/bootstrap"
	"heritage-archive-be/internal/dto"
	"heritage-archive-be/internal/pkg/serverutils"
	"heritage-archive-be/pkg/database"

	"github.com/spf13/cobra"
)

func newIngestCmd() *cobra.Command {
	var req dto.IngestArchiveRequest

	cmd := &cobra.Command{
		Use:   "ingest --title <title> --media-type <type> [flags] <file>...",
		Short: "Store, summarize and index archive files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := serverutils.ValidateRequest(req); err != nil {
				return err
			}

			files := make([]dto.IngestFile, 0, len(args))
			defer func() {
				for _, f := range files {
					_ = f.Body.(*os.File).Close()
				}
			}()
			for _, path := range args {
				f, err := os.Open(path)
				if err != nil {
					return err
				}
				info, err := f.Stat()
				if err != nil {
					_ = f.Close()
					return err
				}
				files = append(files, dto.IngestFile{
					Name:        filepath.Base(path),
					ContentType: contentType(path),
					Size:        info.Size(),
					Body:        f,
				})
			}

			return withContainer(func(ctx context.Context, c *bootstrap.Container) error {
				res, err := c.ArchiveService.Ingest(ctx, &req, files)
				if err != nil {
					return err
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(res)
			})
		},
	}

	cmd.Flags().StringVar(&req.Title, "title", "", "archive title (required)")
	cmd.Flags().StringVar(&req.Description, "description", "", "free-text description")
	cmd.Flags().StringSliceVar(&req.MediaTypes, "media-type", nil, "image, video, audio or document (repeatable)")
	cmd.Flags().StringSliceVar(&req.Tags, "tag", nil, "tag (repeatable)")
	cmd.Flags().StringSliceVar(&req.Dates, "date", nil, "content date, RFC3339 or YYYY-MM-DD (repeatable)")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("media-type")
	return cmd
}

func contentType(path string) string {
	if ct := mime.TypeByExtension(filepath.Ext(path)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the pgvector extension, the archives table and its indexes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDatabase()
			if err != nil {
				return err
			}
			if err := database.Migrate(db); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migration complete")
			return nil
		},
	}
}
