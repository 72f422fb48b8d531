package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

const usage = `Usage:
  botctl set-phase <registration|test_task|main_task|finished>
  botctl set-team-status <team-name> <test-task-passed> <is-participant>
  botctl broadcast <text>

Environment:
  BOTCTL_API_URL    admin API base url (default http://localhost:8080)
  BOTCTL_API_TOKEN  admin API token`

func main() {
	viper.SetEnvPrefix("botctl")
	viper.SetDefault("api_url", "http://localhost:8080")
	viper.BindEnv("api_url")
	viper.BindEnv("api_token")

	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}

	client := resty.New().
		SetBaseURL(viper.GetString("api_url")).
		SetHeader("X-Admin-Token", viper.GetString("api_token"))

	var err error
	switch cmd, args := os.Args[1], os.Args[2:]; cmd {
	case "set-phase":
		err = setPhase(client, args)
	case "set-team-status":
		err = setTeamStatus(client, args)
	case "broadcast":
		err = broadcast(client, args)
	default:
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil {
		logrus.Fatal(err)
	}
}

func setPhase(client *resty.Client, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("set-phase expects exactly one argument")
	}

	resp, err := client.R().
		SetBody(map[string]string{"phase": args[0]}).
		Post("/admin/phase")
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	return report(resp)
}

func setTeamStatus(client *resty.Client, args []string) error {
	if len(args) != 3 {
		return fmt.Errorf("set-team-status expects <team-name> <test-task-passed> <is-participant>")
	}

	testPassed, err := strconv.ParseBool(args[1])
	if err != nil {
		return fmt.Errorf("parsing test-task-passed: %w", err)
	}
	isParticipant, err := strconv.ParseBool(args[2])
	if err != nil {
		return fmt.Errorf("parsing is-participant: %w", err)
	}

	resp, err := client.R().
		SetBody(map[string]any{
			"team_name":        args[0],
			"test_task_passed": testPassed,
			"is_participant":   isParticipant,
		}).
		Post("/admin/team_status")
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	return report(resp)
}

func broadcast(client *resty.Client, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("broadcast expects exactly one argument")
	}

	resp, err := client.R().
		SetBody(map[string]string{"text": args[0]}).
		Post("/admin/broadcast")
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	return report(resp)
}

func report(resp *resty.Response) error {
	if resp.IsError() {
		return fmt.Errorf("api returned %s: %s", resp.Status(), resp.String())
	}
	fmt.Println(resp.String())
	return nil
}
