package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/fpang/styleai/internal/cli"
	"github.com/fpang/styleai/internal/schema"
	"github.com/fpang/styleai/internal/store"
	"github.com/fpang/styleai/internal/wardrobe"
)

var (
	itemDescriptionFlag string
	itemCategoryFlag    string
	itemPhotoFlag       string
)

var wardrobeCmd = &cobra.Command{
	Use:   "wardrobe",
	Short: "List and edit stored wardrobe items",
}

var wardrobeListCmd = &cobra.Command{
	Use:   "list",
	Short: "List wardrobe items",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e := loadEnv()
		view, closeFn, err := e.openView(cmd.Context())
		if err != nil {
			return err
		}
		defer closeFn()
		cli.FormatWardrobe(os.Stdout, view.Items())
		return nil
	},
}

var wardrobeAddCmd = &cobra.Command{
	Use:   "add <photo>",
	Short: "Add an item, describing it with Gemini when fields are missing",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e := loadEnv()
		ctx := cmd.Context()

		photo, err := cli.ReadPhoto(cli.ValidateAndResolveFile(args[0]))
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to read photo")
		}
		fields := schema.NewItem{
			PhotoDataURI: photo,
			Description:  strings.TrimSpace(itemDescriptionFlag),
			Category:     parseCategoryFlag(),
		}

		if fields.Description == "" || fields.Category == "" {
			out, err := e.chatClient(ctx, false).GenerateDescription(ctx, schema.DescriptionInput{
				PhotoDataURI: photo,
				Language:     e.language(),
			})
			if err != nil {
				return flowError(err, "Could not generate a description for the image. Pass --description and --category")
			}
			if fields.Description == "" {
				fields.Description = out.Description
			}
			if fields.Category == "" {
				fields.Category = out.Category
			}
		}

		view, closeFn, err := e.openView(ctx)
		if err != nil {
			return err
		}
		defer closeFn()
		item, err := view.Add(ctx, fields)
		if err != nil {
			return flowError(err, "Failed to add item to the wardrobe")
		}
		fmt.Printf("Added %s (%s): %s\n", item.ID, item.Category, item.Description)
		return nil
	},
}

var wardrobeUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Change an item's description, category, or photo",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e := loadEnv()
		ctx := cmd.Context()

		category := parseCategoryFlag()
		photo := ""
		if itemPhotoFlag != "" {
			var err error
			if photo, err = cli.ReadPhoto(cli.ValidateAndResolveFile(itemPhotoFlag)); err != nil {
				log.Fatal().Err(err).Msg("Failed to read photo")
			}
		}

		view, closeFn, err := e.openView(ctx)
		if err != nil {
			return err
		}
		defer closeFn()
		item, ok := view.Get(args[0])
		if !ok {
			return fmt.Errorf("item %s: %w", args[0], store.ErrNotFound)
		}

		if itemDescriptionFlag != "" {
			item.Description = strings.TrimSpace(itemDescriptionFlag)
		}
		if category != "" {
			item.Category = category
		}
		if photo != "" {
			item.PhotoDataURI = photo
		}

		if err := view.Update(ctx, item); err != nil {
			return flowError(err, "Failed to update item")
		}
		fmt.Printf("Updated %s (%s): %s\n", item.ID, item.Category, item.Description)
		return nil
	},
}

var wardrobeDeleteCmd = &cobra.Command{
	Use:   "delete <id>...",
	Short: "Delete items",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e := loadEnv()
		ctx := cmd.Context()

		view, closeFn, err := e.openView(ctx)
		if err != nil {
			return err
		}
		defer closeFn()
		for _, id := range args {
			if err := view.Delete(ctx, id); err != nil {
				return flowError(err, "Failed to delete item")
			}
			fmt.Printf("Deleted %s\n", id)
		}
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{wardrobeAddCmd, wardrobeUpdateCmd} {
		c.Flags().StringVarP(&itemDescriptionFlag, "description", "d", "", "Item description")
		c.Flags().StringVarP(&itemCategoryFlag, "category", "c", "", "Item category: "+strings.Join(wardrobe.CategoryNames(wardrobe.Categories), ", "))
	}
	wardrobeUpdateCmd.Flags().StringVar(&itemPhotoFlag, "photo", "", "Replace the photo with this file")

	wardrobeCmd.AddCommand(wardrobeListCmd, wardrobeAddCmd, wardrobeUpdateCmd, wardrobeDeleteCmd)
}

func parseCategoryFlag() wardrobe.Category {
	if itemCategoryFlag == "" {
		return ""
	}
	c, err := wardrobe.ParseCategory(itemCategoryFlag)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid --category")
	}
	return c
}
