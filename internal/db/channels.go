package db

import (
	"github.com/pi11/podcaster/internal/models"
)

func GetAllChannels() ([]models.Channel, error) {
	var channels []models.Channel
	err := DB.Select(&channels, "SELECT * FROM channels ORDER BY id")
	return channels, err
}

func GetChannelByID(id int) (models.Channel, error) {
	channel := models.Channel{}
	err := DB.Get(&channel, "SELECT * FROM channels WHERE id = $1", id)
	return channel, err
}
