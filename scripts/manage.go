// 运维脚本：提升用户角色、从命令行批量导入题目
//
// 用法:
//
//	go run scripts/manage.go promote <username> <student|teacher|admin>
//	go run scripts/manage.go import <testID> <file.json> <staff-username>
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"testhub_backend/internal/config"
	"testhub_backend/internal/model"
	"testhub_backend/internal/repository"
	"testhub_backend/internal/service"
	"testhub_backend/internal/util"
	"testhub_backend/pkg/database"
	"testhub_backend/pkg/logger"
)

func main() {
	configPath := flag.String("config", "configs", "配置文件目录")
	flag.Parse()
	args := flag.Args()
	if len(args) == 0 {
		usage()
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("无法读取配置文件: %v", err)
	}
	logger.InitLogger(cfg)

	db, err := database.InitDB(&cfg.Database, false)
	if err != nil {
		log.Fatalf("数据库连接失败: %v", err)
	}
	users := repository.NewUserRepository(db)

	switch args[0] {
	case "promote":
		if len(args) != 3 {
			usage()
		}
		role := model.UserRole(args[2])
		if role != model.Student && role != model.Teacher && role != model.Admin {
			log.Fatalf("未知角色: %s", args[2])
		}
		user, err := users.FindByUsername(args[1])
		if err != nil {
			log.Fatalf("找不到用户 %s: %v", args[1], err)
		}
		if err := users.UpdateRole(user.ID, role); err != nil {
			log.Fatalf("更新角色失败: %v", err)
		}
		log.Printf("用户 %s 的角色已更新为 %s", user.Username, role)

	case "import":
		if len(args) != 4 {
			usage()
		}
		testID, ok := util.ParseID(args[1])
		if !ok {
			log.Fatalf("无效的试卷ID: %s", args[1])
		}
		user, err := users.FindByUsername(args[3])
		if err != nil {
			log.Fatalf("找不到用户 %s: %v", args[3], err)
		}
		f, err := os.Open(args[2])
		if err != nil {
			log.Fatalf("无法打开文件: %v", err)
		}
		defer f.Close()

		actor := service.Actor{UserID: user.ID, Username: user.Username, Role: user.Role}
		questions := service.NewQuestionService(db, cfg.Quiz.MaxImportBytes)
		res, err := questions.BulkImport(context.Background(), actor, testID, f.Name(), f)
		if err != nil {
			var ie *service.ImportError
			if errors.As(err, &ie) {
				log.Fatalf("导入失败: %s", ie.UserMessage())
			}
			log.Fatalf("导入失败: %v", err)
		}
		log.Printf("成功导入 %d 道题目，试卷状态: %s", res.Added, res.TestStatus)

	default:
		usage()
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: manage promote <username> <role> | manage import <testID> <file.json> <staff-username>")
	os.Exit(2)
}
