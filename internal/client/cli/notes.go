package cli

import (
	"context"
	"fmt"
	"log"
	"os"
	"sort"
)

func (a *App) ListNotes(ctx context.Context) error {
	notes := a.engine.CardNotes()
	cardIDs := make([]string, 0, len(notes))
	for id, text := range notes {
		if text != "" {
			cardIDs = append(cardIDs, id)
		}
	}
	if len(cardIDs) == 0 {
		fmt.Println("No card notes yet")
		return nil
	}
	sort.Strings(cardIDs)
	for _, id := range cardIDs {
		fmt.Printf("%s: %s\n", id, notes[id])
	}
	return nil
}

func (a *App) AddNote(ctx context.Context) error {
	cardID, err := getSimpleText(a.reader, "Enter card id (e.g. major-00)", os.Stdout)
	if err != nil {
		return err
	}
	text, err := GetMultiline(a.reader, "Enter note", os.Stdout)
	if err != nil {
		return err
	}

	if err := a.engine.SaveCardNotes(ctx, cardID, text); err != nil {
		log.Printf("error: %v", err)
		return err
	}
	fmt.Println("Saved")
	return nil
}
