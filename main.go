package main

import (
	"github.com/mingyan/blogserver/cache"
	"github.com/mingyan/blogserver/config"
	"github.com/mingyan/blogserver/models"
	"github.com/mingyan/blogserver/routes"
	"github.com/mingyan/blogserver/utils"
)

func main() {
	cfg := config.Load()

	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}

	db := config.InitDatabase(cfg,
		&models.User{},
		&models.Post{},
		&models.Tag{},
		&models.PostTag{},
		&models.PostLike{},
		&models.Comment{},
	)
	rdb := cache.NewRedisClient(cfg)

	r := routes.SetupRouter(db, rdb)

	utils.Sugar.Infof("Starting server on port %s (graceful)", cfg.AppPort)
	if err := utils.GraceServer(":"+cfg.AppPort, r); err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}
