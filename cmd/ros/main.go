package main

import (
	"log"

	"github.com/panyam/ros/cmd/ros/commands"
	"github.com/panyam/ros/config"
)

func main() {
	// ROS_LOG_LEVEL and ROS_CONFIG may come from ./.env
	if err := config.LoadEnvFiles(); err != nil {
		log.Fatal("Error loading .env file: ", err)
	}
	commands.Execute()
}
