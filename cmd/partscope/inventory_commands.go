package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"partscope/internal/api"
)

func newListCommand(ctx *commandContext) *cobra.Command {
	var statuses []string
	var opts listOptions
	var asJSON bool

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List inventory items",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.validate(); err != nil {
				return err
			}
			return ctx.withClient(func(client *api.Client) error {
				items, err := client.List(cmd.Context(), statuses...)
				if err != nil {
					return err
				}
				items = applyListOptions(items, opts)
				if asJSON {
					return writeJSON(cmd, items)
				}
				out := cmd.OutOrStdout()
				if len(items) == 0 {
					fmt.Fprintln(out, "No items")
					return nil
				}
				fmt.Fprintln(out, renderItems(items))
				fmt.Fprintln(out, statusCounts(items))
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVarP(&statuses, "status", "s", nil, "Only show items with these statuses")
	cmd.Flags().StringVar(&opts.owner, "owner", "", "Only show items assigned to this owner")
	cmd.Flags().StringVar(&opts.search, "search", "", "Case-insensitive text match on name, owner, notes or id")
	cmd.Flags().StringVar(&opts.sortBy, "sort", "created", "Sort key: created, name, score or status")
	cmd.Flags().BoolVar(&opts.desc, "desc", false, "Reverse the sort order")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	return cmd
}

func newUploadCommand(ctx *commandContext) *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "upload FILE...",
		Short: "Upload part images as new inventory items",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if name != "" && len(args) > 1 {
				return fmt.Errorf("--name can only be used with a single file")
			}
			files := make([]api.UploadFile, 0, len(args))
			for _, path := range args {
				data, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("read %s: %w", path, err)
				}
				files = append(files, api.UploadFile{Data: data, Name: name, Filename: filepath.Base(path)})
			}
			return ctx.withClient(func(client *api.Client) error {
				items, err := client.Upload(cmd.Context(), files)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Uploaded %d image(s); inventory now holds %d item(s)\n", len(files), len(items))
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "Item name (single file only; defaults to the file name)")
	return cmd
}

func newClassifyCommand(ctx *commandContext) *cobra.Command {
	var onlyUnclassified bool

	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Run the defect classifier over the inventory",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *api.Client) error {
				items, err := client.Classify(cmd.Context(), onlyUnclassified)
				if err != nil {
					return err
				}
				scored := 0
				for _, item := range items {
					if item.Score != nil {
						scored++
					}
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d of %d item(s) classified (%s)\n", scored, len(items), statusCounts(items))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&onlyUnclassified, "only-unclassified", false, "Skip items that already have a score")
	return cmd
}

func newPatchCommand(ctx *commandContext) *cobra.Command {
	var name, status, owner, notes string
	var appendNotes bool

	cmd := &cobra.Command{
		Use:   "patch ID",
		Short: "Update fields of one item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			req := api.PatchRequest{AppendNotes: appendNotes}
			if flags.Changed("name") {
				req.Name = &name
			}
			if flags.Changed("status") {
				req.Status = &status
			}
			if flags.Changed("owner") {
				req.Owner = &owner
			}
			if flags.Changed("notes") {
				req.Notes = &notes
			}
			return ctx.withClient(func(client *api.Client) error {
				item, err := client.Patch(cmd.Context(), id, req)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderItems([]api.Item{item}))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "New item name")
	cmd.Flags().StringVar(&status, "status", "", "New status")
	cmd.Flags().StringVar(&owner, "owner", "", "New owner")
	cmd.Flags().StringVar(&notes, "notes", "", "Notes text")
	cmd.Flags().BoolVar(&appendNotes, "append", false, "Append --notes to existing notes instead of replacing them")
	return cmd
}

func newBatchUpdateCommand(ctx *commandContext) *cobra.Command {
	var status, owner, notes string
	var appendNotes bool

	cmd := &cobra.Command{
		Use:   "batch-update ID...",
		Short: "Apply the same status, owner or notes to several items",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			req := api.BatchUpdateRequest{ItemIDs: ids, AppendNotes: appendNotes}
			if flags.Changed("status") {
				req.Status = &status
			}
			if flags.Changed("owner") {
				req.Owner = &owner
			}
			if flags.Changed("notes") {
				req.Notes = &notes
			}
			return ctx.withClient(func(client *api.Client) error {
				if _, err := client.BatchUpdate(cmd.Context(), req); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Updated %d item(s)\n", len(ids))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "New status")
	cmd.Flags().StringVar(&owner, "owner", "", "New owner")
	cmd.Flags().StringVar(&notes, "notes", "", "Notes text")
	cmd.Flags().BoolVar(&appendNotes, "append", false, "Append --notes to existing notes instead of replacing them")
	return cmd
}

func newDeleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:     "delete ID...",
		Aliases: []string{"rm"},
		Short:   "Delete items and their stored images",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			return ctx.withClient(func(client *api.Client) error {
				items, err := client.BatchDelete(cmd.Context(), ids)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d item(s); %d remaining\n", len(ids), len(items))
				return nil
			})
		},
	}
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid item id %q", raw)
	}
	return id, nil
}

func parseIDs(args []string) ([]int64, error) {
	ids := make([]int64, 0, len(args))
	for _, arg := range args {
		for _, part := range strings.Split(arg, ",") {
			if strings.TrimSpace(part) == "" {
				continue
			}
			id, err := parseID(part)
			if err != nil {
				return nil, err
			}
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("at least one item id is required")
	}
	return ids, nil
}
