package notify

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	tele "gopkg.in/telebot.v3"

	"video-scheduler/internal/models"
	"video-scheduler/internal/repository"
	"video-scheduler/internal/service"
	"video-scheduler/internal/timeutil"
)

// Dependencies collects the services the bot commands operate on
type Dependencies struct {
	Generator    *service.ScheduleGenerator
	Maintenance  *service.PoolMaintenanceService
	BackupSvc    *service.BackupService
	ConfigRepo   *repository.ConfigRepository
	ScheduleRepo *repository.ScheduleRepository
}

// TelegramBot is the operator interface: inspection and control
// commands for the admin chat, plus daily plan reports to a channel.
type TelegramBot struct {
	bot           *tele.Bot
	adminChatID   int64
	channelChatID int64
	deps          Dependencies
}

// NewTelegramBot creates and wires a new TelegramBot
func NewTelegramBot(token string, adminChatID, channelChatID int64, deps Dependencies) (*TelegramBot, error) {
	pref := tele.Settings{
		Token:  token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}

	bot, err := tele.NewBot(pref)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	t := &TelegramBot{
		bot:           bot,
		adminChatID:   adminChatID,
		channelChatID: channelChatID,
		deps:          deps,
	}
	t.registerHandlers()
	return t, nil
}

// Start begins polling for updates (blocking)
func (t *TelegramBot) Start() {
	t.bot.Start()
}

// Stop stops the bot
func (t *TelegramBot) Stop() {
	t.bot.Stop()
}

func (t *TelegramBot) registerHandlers() {
	t.bot.Use(t.adminOnly)

	t.bot.Handle("/start", t.handleStart)
	t.bot.Handle("/status", t.handleStatus)
	t.bot.Handle("/plan", t.handlePlan)
	t.bot.Handle("/summary", t.handleSummary)
	t.bot.Handle("/generate", t.handleGenerate)
	t.bot.Handle("/pause", t.handlePause)
	t.bot.Handle("/resume", t.handleResume)
	t.bot.Handle("/sync", t.handleSync)
	t.bot.Handle("/sweep", t.handleSweep)
	t.bot.Handle("/backup", t.handleBackup)
}

// adminOnly drops updates from anyone but the configured admin chat
func (t *TelegramBot) adminOnly(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		if c.Chat() == nil || c.Chat().ID != t.adminChatID {
			return nil
		}
		return next(c)
	}
}

func (t *TelegramBot) handleStart(c tele.Context) error {
	return c.Send(strings.Join([]string{
		"📅 <b>Video Scheduler</b>",
		"",
		"/status - system status and pool counts",
		"/plan [date] - scheduled slots for a date",
		"/summary [date] - aggregate counts for a date",
		"/generate [date] - generate schedule (default: tomorrow)",
		"/pause, /resume - toggle generation",
		"/sync - pull new videos from the monitoring pipeline",
		"/sweep - retire over-scheduled videos",
		"/backup - back up the database",
	}, "\n"), tele.ModeHTML)
}

func (t *TelegramBot) handleStatus(c tele.Context) error {
	cfg, err := t.deps.ConfigRepo.Get()
	if err != nil {
		return c.Send(fmt.Sprintf("⚠️ Failed to load config: %v", err))
	}
	if cfg == nil {
		return c.Send("⚠️ No schedule config found")
	}

	stats, err := t.deps.Maintenance.Stats()
	if err != nil {
		return c.Send(fmt.Sprintf("⚠️ Failed to load pool stats: %v", err))
	}

	channels, err := t.deps.ConfigRepo.GetActiveChannels()
	if err != nil {
		return c.Send(fmt.Sprintf("⚠️ Failed to load channels: %v", err))
	}

	var sb strings.Builder
	sb.WriteString("⚙️ <b>Scheduler Status</b>\n\n")
	sb.WriteString(fmt.Sprintf("System: <b>%s</b>\n", cfg.SystemStatus))
	sb.WriteString(fmt.Sprintf("Start date: %s\n", orDash(cfg.SystemStartDate)))
	sb.WriteString(fmt.Sprintf("Last generated: %s\n", orDash(cfg.LastScheduleGeneratedDate)))
	sb.WriteString(fmt.Sprintf("Videos per channel: %d\n", cfg.VideosPerChannel))
	sb.WriteString(fmt.Sprintf("Active channels: %d\n\n", len(channels)))
	sb.WriteString(fmt.Sprintf("Old pool: %d active / %d exhausted\n",
		stats.Old[models.PoolStatusActive], stats.Old[models.PoolStatusExhausted]))
	sb.WriteString(fmt.Sprintf("New pool: %d active / %d exhausted",
		stats.New[models.PoolStatusActive], stats.New[models.PoolStatusExhausted]))

	return c.Send(sb.String(), tele.ModeHTML)
}

func (t *TelegramBot) handlePlan(c tele.Context) error {
	date := argOrDefault(c, timeutil.Tomorrow())
	videos, err := t.deps.ScheduleRepo.GetByDate(date)
	if err != nil {
		return c.Send(fmt.Sprintf("⚠️ Failed to load schedule: %v", err))
	}
	return c.Send(FormatSchedule(date, videos), tele.ModeHTML)
}

func (t *TelegramBot) handleSummary(c tele.Context) error {
	date := argOrDefault(c, timeutil.Today())
	summary, err := t.deps.ScheduleRepo.GetSummary(date)
	if err != nil {
		return c.Send(fmt.Sprintf("⚠️ Failed to load summary: %v", err))
	}
	return c.Send(FormatSummary(summary), tele.ModeHTML)
}

func (t *TelegramBot) handleGenerate(c tele.Context) error {
	date := argOrDefault(c, timeutil.Tomorrow())
	plan, err := t.deps.Generator.Generate(date)
	if errors.Is(err, service.ErrScheduleExists) {
		return c.Send(fmt.Sprintf("ℹ️ Schedule for %s already exists", date))
	}
	if err != nil {
		return c.Send(fmt.Sprintf("⚠️ Generation failed: %v", err))
	}
	return c.Send(FormatDailyPlan(plan), tele.ModeHTML)
}

func (t *TelegramBot) handlePause(c tele.Context) error {
	if err := t.deps.ConfigRepo.SetSystemStatus(models.SystemStatusPaused); err != nil {
		return c.Send(fmt.Sprintf("⚠️ Failed to pause: %v", err))
	}
	return c.Send("⏸ Schedule generation paused")
}

func (t *TelegramBot) handleResume(c tele.Context) error {
	if err := t.deps.ConfigRepo.SetSystemStatus(models.SystemStatusActive); err != nil {
		return c.Send(fmt.Sprintf("⚠️ Failed to resume: %v", err))
	}
	return c.Send("▶️ Schedule generation resumed")
}

func (t *TelegramBot) handleSync(c tele.Context) error {
	result, err := t.deps.Maintenance.SyncNewVideos()
	if err != nil {
		return c.Send(fmt.Sprintf("⚠️ Sync failed: %v", err))
	}
	return c.Send(fmt.Sprintf("🔄 Pool sync done: %d added, %d updated, %d errors",
		result.Added, result.Updated, result.Errors))
}

func (t *TelegramBot) handleSweep(c tele.Context) error {
	result, err := t.deps.Maintenance.SweepExhausted()
	if err != nil {
		return c.Send(fmt.Sprintf("⚠️ Sweep failed: %v", err))
	}
	return c.Send(fmt.Sprintf("🧹 Sweep done (threshold %d): %d old, %d new videos retired",
		result.Threshold, result.OldExhausted, result.NewExhausted))
}

func (t *TelegramBot) handleBackup(c tele.Context) error {
	path, err := t.deps.BackupSvc.Backup()
	if err != nil {
		return c.Send(fmt.Sprintf("⚠️ Backup failed: %v", err))
	}
	return c.Send(fmt.Sprintf("💾 Backup created: %s", path))
}

// SendDailyPlan pushes a generated plan to the report channel.
// Implements service.PlanNotifier.
func (t *TelegramBot) SendDailyPlan(plan *models.DailyPlan) error {
	chatID := t.channelChatID
	if chatID == 0 {
		chatID = t.adminChatID
	}
	_, err := t.bot.Send(tele.ChatID(chatID), FormatDailyPlan(plan), tele.ModeHTML)
	if err != nil {
		return fmt.Errorf("failed to send daily plan: %w", err)
	}
	return nil
}

// FormatDailyPlan formats a generated plan as an HTML report.
// Exported for testing purposes.
func FormatDailyPlan(plan *models.DailyPlan) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📅 <b>Schedule for %s</b> (day %d)\n", plan.Date, plan.DayNumber))
	sb.WriteString(fmt.Sprintf("%d videos total: %d new, %d old\n", plan.TotalVideos, plan.NewVideos, plan.OldVideos))

	for _, ch := range plan.Channels {
		sb.WriteString(fmt.Sprintf("\n<b>%s</b>\n", ch.ChannelName))
		for _, v := range ch.Videos {
			sb.WriteString(fmt.Sprintf("  %d. %s %s\n", v.SlotNumber, typeBadge(v.VideoType), v.VideoTitle))
		}
	}
	return sb.String()
}

// FormatSchedule formats persisted schedule rows grouped by channel.
// Exported for testing purposes.
func FormatSchedule(date string, videos []models.ScheduledVideo) string {
	if len(videos) == 0 {
		return fmt.Sprintf("📅 No schedule for %s", date)
	}

	byChannel := make(map[string][]models.ScheduledVideo)
	var names []string
	for _, v := range videos {
		if _, ok := byChannel[v.TargetChannelName]; !ok {
			names = append(names, v.TargetChannelName)
		}
		byChannel[v.TargetChannelName] = append(byChannel[v.TargetChannelName], v)
	}
	sort.Strings(names)

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📅 <b>Schedule for %s</b>\n", date))
	for _, name := range names {
		sb.WriteString(fmt.Sprintf("\n<b>%s</b>\n", name))
		for _, v := range byChannel[name] {
			sb.WriteString(fmt.Sprintf("  %d. %s %s — %s\n", v.SlotNumber, typeBadge(v.VideoType), v.VideoTitle, v.Status))
		}
	}
	return sb.String()
}

// FormatSummary formats an aggregate schedule summary.
// Exported for testing purposes.
func FormatSummary(summary *repository.ScheduleSummary) string {
	if summary.Total == 0 {
		return fmt.Sprintf("📊 No schedule for %s", summary.Date)
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📊 <b>Summary for %s</b>\n", summary.Date))
	sb.WriteString(fmt.Sprintf("%d videos: %d new, %d old\n", summary.Total, summary.New, summary.Old))

	statuses := make([]string, 0, len(summary.ByStatus))
	for status := range summary.ByStatus {
		statuses = append(statuses, string(status))
	}
	sort.Strings(statuses)
	for _, status := range statuses {
		sb.WriteString(fmt.Sprintf("  %s: %d\n", status, summary.ByStatus[models.ScheduleStatus(status)]))
	}

	for _, ch := range summary.ByChannel {
		sb.WriteString(fmt.Sprintf("\n<b>%s</b>: %d videos (%d new, %d old)", ch.ChannelName, ch.Total, ch.New, ch.Old))
	}
	return sb.String()
}

func typeBadge(t models.VideoType) string {
	if t == models.VideoTypeNew {
		return "🆕"
	}
	return "🎞"
}

func orDash(s string) string {
	if s == "" {
		return "—"
	}
	return s
}

func argOrDefault(c tele.Context, def string) string {
	args := c.Args()
	if len(args) > 0 && args[0] != "" {
		return args[0]
	}
	return def
}
