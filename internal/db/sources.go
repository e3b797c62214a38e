package db

import (
	"github.com/pi11/podcaster/internal/models"
)

func GetActiveSources() ([]models.Source, error) {
	var sources []models.Source
	err := DB.Select(&sources, "SELECT * FROM sources WHERE is_active = true ORDER BY id")
	return sources, err
}

func GetSourceByID(id int) (models.Source, error) {
	source := models.Source{}
	err := DB.Get(&source, "SELECT * FROM sources WHERE id = $1", id)
	return source, err
}
