package cli

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/arcanadev/arcana/internal/client/models"
)

func (a *App) ListReadings(ctx context.Context) error {
	readings := a.engine.Readings()
	if len(readings) == 0 {
		fmt.Println("No readings yet")
		return nil
	}
	for _, r := range readings {
		title := r.Title
		if title == "" {
			title = "(untitled)"
		}
		fmt.Printf("%s  %s  %s  [%d spread(s)]\n", r.ID, r.Date, title, len(r.Spreads))
	}
	return nil
}

// AddReading walks the user through a reading with a single spread: a
// question, a comma-separated card list, and an interpretation.
func (a *App) AddReading(ctx context.Context) error {
	folderID, err := getSimpleText(a.reader, "Enter folder id (empty for none)", os.Stdout)
	if err != nil {
		return err
	}
	title, err := getSimpleText(a.reader, "Enter title", os.Stdout)
	if err != nil {
		return err
	}
	question, err := getSimpleText(a.reader, "Enter question", os.Stdout)
	if err != nil {
		return err
	}
	cardList, err := getSimpleText(a.reader, "Enter cards, comma separated (prefix r: for reversed)", os.Stdout)
	if err != nil {
		return err
	}
	interpretation, err := GetMultiline(a.reader, "Enter interpretation", os.Stdout)
	if err != nil {
		return err
	}

	reading, err := a.engine.CreateReading(ctx, models.Reading{
		FolderID: folderID,
		Title:    title,
		Spreads: []models.Spread{{
			Question:       question,
			Cards:          parseCards(cardList),
			Interpretation: interpretation,
		}},
		Date: time.Now().Format("2006-01-02"),
	})
	if err != nil {
		log.Printf("error: %v", err)
		return err
	}
	fmt.Printf("Created reading %s\n", reading.ID)
	return nil
}

// ShowReading prints one reading in full: every spread with its cards,
// plus the reflection.
func (a *App) ShowReading(ctx context.Context) error {
	id, err := getSimpleText(a.reader, "Enter reading id", os.Stdout)
	if err != nil {
		return err
	}

	for _, r := range a.engine.Readings() {
		if r.ID != id {
			continue
		}
		fmt.Printf("%s  %s  %s\n", r.ID, r.Date, r.Title)
		for i, s := range r.Spreads {
			fmt.Printf("  Spread %d: %s\n", i+1, s.Question)
			for _, c := range s.Cards {
				line := "    " + c.CardID
				if c.Reversed {
					line += " (reversed)"
				}
				if c.Position != "" {
					line += " @" + c.Position
				}
				fmt.Println(line)
			}
			if s.Interpretation != "" {
				fmt.Printf("  %s\n", s.Interpretation)
			}
		}
		if r.Reflection != "" {
			fmt.Printf("Reflection: %s\n", r.Reflection)
		}
		return nil
	}
	fmt.Println("Reading not found")
	return nil
}

// EditReading updates the title and reflection of an existing reading.
// Empty answers leave the corresponding field untouched.
func (a *App) EditReading(ctx context.Context) error {
	id, err := getSimpleText(a.reader, "Enter reading id", os.Stdout)
	if err != nil {
		return err
	}
	title, err := getSimpleText(a.reader, "New title (empty to keep)", os.Stdout)
	if err != nil {
		return err
	}
	reflection, err := GetMultiline(a.reader, "New reflection (empty to keep)", os.Stdout)
	if err != nil {
		return err
	}

	var update models.ReadingUpdate
	if title != "" {
		update.Title = &title
	}
	if reflection != "" {
		update.Reflection = &reflection
	}
	if update.Title == nil && update.Reflection == nil {
		fmt.Println("Nothing to change")
		return nil
	}

	if err := a.engine.UpdateReading(ctx, id, update); err != nil {
		log.Printf("error: %v", err)
		return err
	}
	fmt.Println("Updated")
	return nil
}

func (a *App) DeleteReading(ctx context.Context) error {
	id, err := getSimpleText(a.reader, "Enter reading id to delete", os.Stdout)
	if err != nil {
		return err
	}

	if err := a.engine.DeleteReading(ctx, id); err != nil {
		log.Printf("error: %v", err)
		return err
	}
	fmt.Println("Deleted")
	return nil
}

// parseCards turns "r:major-13, cups-02@present" into card placements in
// order. An optional "@label" suffix names the card's position in the
// spread.
func parseCards(list string) []models.CardPlacement {
	var cards []models.CardPlacement
	for _, raw := range strings.Split(list, ",") {
		card := strings.TrimSpace(raw)
		if card == "" {
			continue
		}
		reversed := false
		if strings.HasPrefix(card, "r:") {
			reversed = true
			card = strings.TrimPrefix(card, "r:")
		}
		position := ""
		if card, position, _ = strings.Cut(card, "@"); position != "" {
			position = strings.TrimSpace(position)
		}
		cards = append(cards, models.CardPlacement{CardID: card, Reversed: reversed, Position: position})
	}
	return cards
}
