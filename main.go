package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/visioweb/askboard/config"
	"github.com/visioweb/askboard/database"
	"github.com/visioweb/askboard/logger"
	"github.com/visioweb/askboard/util/random"
	"github.com/visioweb/askboard/web"
	"github.com/visioweb/askboard/web/entity"
	"github.com/visioweb/askboard/web/service"
)

const generatedPasswordLength = 16

func initLogger() {
	level, err := logger.ParseLevel(config.GetLogLevel())
	if err != nil {
		log.Fatal(err)
	}
	logger.InitLogger(level)
}

// openDatabase loads the configuration and opens the database it names.
func openDatabase() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := database.InitDB(cfg.Database); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runWebServer() {
	log.Printf("%v %v", config.GetName(), config.GetVersion())
	initLogger()
	defer logger.CloseLogger()

	cfg, err := openDatabase()
	if err != nil {
		log.Fatal(err)
	}
	defer database.CloseDB()

	if err := cfg.RequireSecret(); err != nil {
		log.Fatal(err)
	}

	server := web.NewServer(cfg)
	if err := server.Start(); err != nil {
		log.Println(err)
		return
	}

	sigCh := make(chan os.Signal, 1)
	// Trap shutdown signals
	signal.Notify(sigCh, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM)
	for {
		sig := <-sigCh

		switch sig {
		case syscall.SIGHUP:
			err := server.Stop()
			if err != nil {
				logger.Warning("stop server err:", err)
			}
			server = web.NewServer(cfg)
			err = server.Start()
			if err != nil {
				log.Println(err)
				return
			}
		default:
			if err := server.Stop(); err != nil {
				logger.Warning("stop server err:", err)
			}
			return
		}
	}
}

func migrateDb() {
	fmt.Println("Start migrating database...")
	if _, err := openDatabase(); err != nil {
		log.Fatal(err)
	}
	defer database.CloseDB()
	fmt.Println("Migration done!")
}

func createUser(username, email, password string, admin bool) {
	cfg, err := openDatabase()
	if err != nil {
		fmt.Println(err)
		return
	}
	defer database.CloseDB()

	generated := password == ""
	if generated {
		password = random.Seq(generatedPasswordLength)
	}
	userService := service.NewUserService(cfg)
	user, err := userService.CreateUser(&entity.RegisterForm{
		Username: username,
		Email:    email,
		Password: password,
	}, admin)
	if err != nil {
		fmt.Println("create user failed:", err)
		return
	}
	fmt.Printf("created user %d (%s), admin: %v\n", user.Id, user.Username, user.IsAdmin)
	if generated {
		fmt.Println("password:", password)
	}
}

func promoteUser(email string, revoke bool) {
	cfg, err := openDatabase()
	if err != nil {
		fmt.Println(err)
		return
	}
	defer database.CloseDB()

	userService := service.NewUserService(cfg)
	if err := userService.SetAdmin(email, !revoke); err != nil {
		fmt.Println("update user failed:", err)
		return
	}
	if revoke {
		fmt.Println("admin rights revoked from", email)
	} else {
		fmt.Println("admin rights granted to", email)
	}
}

func main() {
	var rootCmd = &cobra.Command{
		Use:   config.GetName(),
		Short: "Questions and answers server",
	}

	var runCmd = &cobra.Command{
		Use:   "run",
		Short: "Run the web server",
		Run: func(cmd *cobra.Command, args []string) {
			runWebServer()
		},
	}

	var migrateCmd = &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		Run: func(cmd *cobra.Command, args []string) {
			migrateDb()
		},
	}

	var versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(config.GetVersion())
		},
	}

	var userCmd = &cobra.Command{
		Use:   "user",
		Short: "Manage user accounts",
	}

	var createCmd = &cobra.Command{
		Use:   "create",
		Short: "Create a confirmed account",
		Run: func(cmd *cobra.Command, args []string) {
			username, _ := cmd.Flags().GetString("username")
			email, _ := cmd.Flags().GetString("email")
			password, _ := cmd.Flags().GetString("password")
			admin, _ := cmd.Flags().GetBool("admin")
			createUser(username, email, password, admin)
		},
	}

	createCmd.Flags().String("username", "", "login username")
	createCmd.Flags().String("email", "", "email address")
	createCmd.Flags().String("password", "", "login password, generated when empty")
	createCmd.Flags().Bool("admin", false, "grant admin rights")
	_ = createCmd.MarkFlagRequired("username")
	_ = createCmd.MarkFlagRequired("email")

	var promoteCmd = &cobra.Command{
		Use:   "promote",
		Short: "Grant or revoke admin rights",
		Run: func(cmd *cobra.Command, args []string) {
			email, _ := cmd.Flags().GetString("email")
			revoke, _ := cmd.Flags().GetBool("revoke")
			promoteUser(email, revoke)
		},
	}

	promoteCmd.Flags().String("email", "", "email address of the account")
	promoteCmd.Flags().Bool("revoke", false, "revoke admin rights instead")
	_ = promoteCmd.MarkFlagRequired("email")

	userCmd.AddCommand(createCmd, promoteCmd)
	rootCmd.AddCommand(runCmd, migrateCmd, versionCmd, userCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
