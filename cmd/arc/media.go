package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/vhagen/archive-curator/internal/media"
	"github.com/vhagen/archive-curator/internal/review"
	"github.com/vhagen/archive-curator/internal/store"
	"github.com/vhagen/archive-curator/internal/util"
)

var mediaCmd = &cobra.Command{
	Use:   "media",
	Short: "Attach and manage files on catalog records",
}

var mediaAttachCmd = &cobra.Command{
	Use:   "attach <record-id> <file>",
	Short: "Attach a file to a record",
	Long: `Attach a file to a catalog record.

The MIME type is sniffed from the file's content, not its extension,
and the size is read from disk. Audio files (oral histories, interview
tapes) additionally have their embedded tags read and stored in the
record's metadata.`,
	Args: cobra.ExactArgs(2),
	RunE: runMediaAttach,
}

var mediaListCmd = &cobra.Command{
	Use:   "list <record-id>",
	Short: "List the files attached to a record",
	Args:  cobra.ExactArgs(1),
	RunE:  runMediaList,
}

var mediaRmCmd = &cobra.Command{
	Use:   "rm <media-id>",
	Short: "Remove an attachment (the file on disk is not touched)",
	Args:  cobra.ExactArgs(1),
	RunE:  runMediaRm,
}

func init() {
	rootCmd.AddCommand(mediaCmd)
	mediaCmd.AddCommand(mediaAttachCmd, mediaListCmd, mediaRmCmd)

	mediaAttachCmd.Flags().String("type", "", "override the detected file type (front_image, back_image, audio, ...)")
}

func runMediaAttach(cmd *cobra.Command, args []string) error {
	recordID := args[0]
	filePath := args[1]
	typeOverride, _ := cmd.Flags().GetString("type")

	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}

	info, err := media.ProbeFile(absPath)
	if err != nil {
		return fmt.Errorf("failed to probe %s: %w", filePath, err)
	}

	fileType := info.FileType
	if typeOverride != "" {
		fileType = typeOverride
	}

	db, err := openCatalog()
	if err != nil {
		return err
	}
	defer db.Close()

	m := &store.MediaFile{
		RecordID: recordID,
		FilePath: absPath,
		FileType: fileType,
		FileSize: info.Size,
		MimeType: info.MimeType,
	}
	if err := db.AttachMedia(m); err != nil {
		if errors.Is(err, store.ErrForeignKey) {
			return fmt.Errorf("record %s not found", recordID)
		}
		return fmt.Errorf("failed to attach media: %w", err)
	}

	util.SuccessLog("Attached %s to record %s (%s, %s)", filepath.Base(absPath), recordID, fileType, info.MimeType)

	// Keep what the tape itself says about its content on the record
	if tags := info.TagsJSON(); tags != "" {
		err := db.MergeRecordMeta(recordID, store.Meta{store.MetaAudioTags: tags})
		if err != nil {
			util.WarnLog("Failed to store audio tags on record: %v", err)
		} else {
			util.InfoLog("Audio tags stored in record metadata")
		}
	}

	return nil
}

func runMediaList(cmd *cobra.Command, args []string) error {
	db, err := openCatalog()
	if err != nil {
		return err
	}
	defer db.Close()

	// Surface a clear error when the record itself is missing
	if _, err := db.GetRecord(args[0]); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("record %s not found", args[0])
		}
		return err
	}

	files, err := db.ListMediaByRecord(args[0])
	if err != nil {
		return fmt.Errorf("failed to list media: %w", err)
	}

	if len(files) == 0 {
		util.InfoLog("No media attached to record %s", args[0])
		return nil
	}

	review.MediaTable(os.Stdout, files)
	return nil
}

func runMediaRm(cmd *cobra.Command, args []string) error {
	db, err := openCatalog()
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.DeleteMedia(args[0]); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("media %s not found", args[0])
		}
		return fmt.Errorf("failed to remove media: %w", err)
	}

	util.SuccessLog("Removed attachment %s", args[0])
	return nil
}
