package main

import (
	"context"
	"fmt"
	"log"
	"strings"

	"apexearn/internal/models"
	"apexearn/internal/services"

	"github.com/robfig/cron/v3"
)

// ReportJob delivers the daily platform summary to the operator chats
// shortly after the UTC rollover, when yesterday's numbers are final.
type ReportJob struct {
	serviceStats *services.ServiceStats
	bot          *services.Bot
}

func NewReportJob(serviceStats *services.ServiceStats, bot *services.Bot) *ReportJob {
	return &ReportJob{serviceStats, bot}
}

func (job *ReportJob) Start(runner *cron.Cron) error {
	_, err := runner.AddFunc("5 0 * * *", job.run)
	return err
}

func (job *ReportJob) run() {
	ctx := context.Background()

	stats, err := job.serviceStats.Collect(ctx)
	if err != nil {
		log.Println("report collect failed:", err)
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "🌅 Daily report\n\n")
	fmt.Fprintf(&sb, "Users: %d (+%d today)\n", stats.TotalUsers, stats.UsersJoinedToday)
	fmt.Fprintf(&sb, "Completions: %d\n", stats.TotalCompletions)
	for _, provider := range models.Providers {
		fmt.Fprintf(&sb, "Tasks (%s): %d\n", provider, stats.TasksPerProvider[provider])
	}
	fmt.Fprintf(&sb, "Pending withdrawals: %d\n", stats.PendingWithdrawals)
	fmt.Fprintf(&sb, "Total user balance: ₹%.2f", stats.TotalUserBalance)

	if err := job.bot.SendAdminMsg(sb.String()); err != nil {
		log.Println("report send failed:", err)
	}
}
