package cli

import (
	"context"
	"fmt"
	"log"
	"os"
)

func (a *App) ListFolders(ctx context.Context) error {
	folders := a.engine.Folders()
	if len(folders) == 0 {
		fmt.Println("No folders yet")
		return nil
	}
	for _, f := range folders {
		fmt.Printf("%s  %s\n", f.ID, f.Name)
	}
	return nil
}

func (a *App) AddFolder(ctx context.Context) error {
	name, err := getSimpleText(a.reader, "Enter folder name", os.Stdout)
	if err != nil {
		return err
	}

	folder, err := a.engine.CreateFolder(ctx, name)
	if err != nil {
		log.Printf("error: %v", err)
		return err
	}
	fmt.Printf("Created folder %s\n", folder.ID)
	return nil
}

func (a *App) RenameFolder(ctx context.Context) error {
	id, err := getSimpleText(a.reader, "Enter folder id", os.Stdout)
	if err != nil {
		return err
	}
	name, err := getSimpleText(a.reader, "Enter new name", os.Stdout)
	if err != nil {
		return err
	}

	if err := a.engine.RenameFolder(ctx, id, name); err != nil {
		log.Printf("error: %v", err)
		return err
	}
	fmt.Println("Renamed")
	return nil
}

// DeleteFolder removes a folder and every reading in it.
func (a *App) DeleteFolder(ctx context.Context) error {
	id, err := getSimpleText(a.reader, "Enter folder id to delete (this removes its readings too)", os.Stdout)
	if err != nil {
		return err
	}

	if err := a.engine.DeleteFolder(ctx, id); err != nil {
		log.Printf("error: %v", err)
		return err
	}
	fmt.Println("Deleted")
	return nil
}
