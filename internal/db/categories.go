package db

import (
	"github.com/pi11/podcaster/internal/models"
)

func GetAllCategories() ([]models.Category, error) {
	var categories []models.Category
	err := DB.Select(&categories, "SELECT * FROM categories ORDER BY id")
	return categories, err
}

func GetBannedWords() ([]string, error) {
	var words []string
	err := DB.Select(&words, "SELECT name FROM banned_words ORDER BY id")
	return words, err
}

// AssignCategories replaces the episode's category links and stamps the
// episode as categorized, even when the list is empty. The categorizer is
// the only writer of this table.
func AssignCategories(episodeID int, categoryIDs []int) error {
	tx, err := DB.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM episode_categories WHERE episode_id = $1", episodeID); err != nil {
		return err
	}
	for pos, catID := range categoryIDs {
		_, err := tx.Exec(
			"INSERT INTO episode_categories (episode_id, category_id, position) VALUES ($1, $2, $3)",
			episodeID, catID, pos)
		if err != nil {
			return err
		}
	}
	if _, err := tx.Exec(
		"UPDATE episodes SET categorized_at = NOW(), updated_at = NOW() WHERE id = $1",
		episodeID); err != nil {
		return err
	}
	return tx.Commit()
}

// EpisodeCategories returns the episode's categories in assignment order.
func EpisodeCategories(episodeID int) ([]models.Category, error) {
	var categories []models.Category
	err := DB.Select(&categories, `
		SELECT c.* FROM categories c
		JOIN episode_categories ec ON ec.category_id = c.id
		WHERE ec.episode_id = $1
		ORDER BY ec.position`, episodeID)
	return categories, err
}
