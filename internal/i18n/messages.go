package i18n

// Catalog keys. Every key must be present at least in the English map.
const (
	MsgWelcome             = "welcome"
	MsgWelcomeList         = "welcome_participant_list"
	MsgAskNumberSubscribe  = "ask_number_subscribe"
	MsgAskNumberUnsub      = "ask_number_unsubscribe"
	MsgAbort               = "abort"
	MsgNoSuchParticipant   = "no_such_participant"
	MsgAlreadySubscribed   = "already_subscribed"
	MsgNotSubscribed       = "not_subscribed"
	MsgSubscriptionAdded   = "subscription_added"
	MsgSubscriptionRemoved = "subscription_removed"
	MsgSubscriptionLimit   = "subscription_limit"

	MsgStatusEmpty  = "status_empty"
	MsgStatusHeader = "status_header"

	MsgStatusUnknown   = "status_unknown"
	MsgStatusFinished  = "status_finished"
	MsgStatusOnCourse  = "status_on_course"
	MsgStatusAbandoned = "status_abandoned"

	MsgCheckinUpdate = "checkin_update"
	MsgCheckinEntry  = "checkin_entry"
	MsgCheckinTime   = "checkin_time"
	MsgDNF           = "dnf"

	MsgRemovedNotice = "removed_notice"

	MsgEventBeforeStart = "event_before_start"
	MsgEventInAir       = "event_in_air"
	MsgEventFinished    = "event_finished"
	MsgRemainder        = "remainder"

	MsgAdminPanel           = "admin_panel"
	MsgAdminFetchingOn      = "admin_fetching_on"
	MsgAdminFetchingOff     = "admin_fetching_off"
	MsgButtonReload         = "button_reload"
	MsgButtonStartFetching  = "button_start_fetching"
	MsgButtonStopFetching   = "button_stop_fetching"
	MsgAdminReloading       = "admin_reloading"
	MsgAdminReloaded        = "admin_reloaded"
	MsgAdminReloadFailed    = "admin_reload_failed"
	MsgAdminFetchingStarted = "admin_fetching_started"
	MsgAdminFetchingStopped = "admin_fetching_stopped"

	MsgInternalError      = "internal_error"
	MsgErrorReportCaption = "error_report_caption"
	MsgSyncHalted         = "sync_halted"

	MsgCmdAddDescription    = "cmd_add_description"
	MsgCmdRemoveDescription = "cmd_remove_description"
	MsgCmdStatusDescription = "cmd_status_description"

	PluralDays    = "days"
	PluralHours   = "hours"
	PluralMinutes = "minutes"
)

var messages = map[string]map[string]string{
	"en": {
		MsgWelcome: "Hello! I send live tracking updates for event participants.\n\n" +
			"/add — follow a participant (up to %d)\n" +
			"/remove — stop following a participant\n" +
			"/status — latest known positions of your participants",
		MsgWelcomeList:         "The list of participants is available here: %s",
		MsgAskNumberSubscribe:  "Type the frame plate number of the participant you want to follow.",
		MsgAskNumberUnsub:      "Type the frame plate number of the participant you want to stop following.",
		MsgAbort:               "Cancelled.",
		MsgNoSuchParticipant:   "There is no participant with that frame plate number.",
		MsgAlreadySubscribed:   "You are already following that participant.",
		MsgNotSubscribed:       "You are not following that participant.",
		MsgSubscriptionAdded:   "Now following <b>%s %s</b>.",
		MsgSubscriptionRemoved: "No longer following <b>%s %s</b>.",
		MsgSubscriptionLimit:   "You cannot follow more than %d participants.",

		MsgStatusEmpty:  "You are not following anyone yet. Use /add to start.",
		MsgStatusHeader: "Participants you follow:",

		MsgStatusUnknown:   "%s — no checkins yet",
		MsgStatusFinished:  "%s — finished with the result %s",
		MsgStatusOnCourse:  "%s — passed %s (%v km) at %s",
		MsgStatusAbandoned: "%s — left the route at %s (%v km)",

		MsgCheckinUpdate: "Checkin update:\n%s",
		MsgCheckinEntry:  "<b>%s %s</b> — %s (%v km), %s",
		MsgCheckinTime:   "%[1]s %[2]d, %02[3]d:%02[4]d",
		MsgDNF:           "DNF",

		MsgRemovedNotice: "These participants are no longer on the start list, " +
			"so they were removed from your watch list:\n%s",

		MsgEventBeforeStart: "The event starts in %s.",
		MsgEventInAir:       "The event is in progress, %s until the time limit.",
		MsgEventFinished:    "The event has finished.",
		MsgRemainder:        "%s, %s, %s",

		MsgAdminPanel:           "Admin panel.\n\n%s",
		MsgAdminFetchingOn:      "Fetching: on",
		MsgAdminFetchingOff:     "Fetching: off",
		MsgButtonReload:         "Reload configuration",
		MsgButtonStartFetching:  "Start fetching",
		MsgButtonStopFetching:   "Stop fetching",
		MsgAdminReloading:       "Reloading configuration…",
		MsgAdminReloaded:        "Configuration reloaded: %d controls, %d participants.",
		MsgAdminReloadFailed:    "Configuration reload failed, see the logs.",
		MsgAdminFetchingStarted: "Fetching started.",
		MsgAdminFetchingStopped: "Fetching stopped.",

		MsgInternalError:      "Something went wrong on our side. Error reference <code>%s</code>.",
		MsgErrorReportCaption: "Error report <code>%s</code>",
		MsgSyncHalted:         "Fetching hit an unexpected error and has been stopped: %s",

		MsgCmdAddDescription:    "Follow a participant",
		MsgCmdRemoveDescription: "Stop following a participant",
		MsgCmdStatusDescription: "Latest known positions",
	},
	"ru": {
		MsgWelcome: "Здравствуйте! Я присылаю обновления трекинга участников.\n\n" +
			"/add — следить за участником (не больше %d)\n" +
			"/remove — перестать следить за участником\n" +
			"/status — последние известные позиции ваших участников",
		MsgWelcomeList:         "Список участников доступен здесь: %s",
		MsgAskNumberSubscribe:  "Введите номер рамки участника, за которым хотите следить.",
		MsgAskNumberUnsub:      "Введите номер рамки участника, за которым больше не хотите следить.",
		MsgAbort:               "Отменено.",
		MsgNoSuchParticipant:   "Участника с таким номером рамки нет.",
		MsgAlreadySubscribed:   "Вы уже следите за этим участником.",
		MsgNotSubscribed:       "Вы не следите за этим участником.",
		MsgSubscriptionAdded:   "Теперь вы следите за <b>%s %s</b>.",
		MsgSubscriptionRemoved: "Вы больше не следите за <b>%s %s</b>.",
		MsgSubscriptionLimit:   "Нельзя следить больше чем за %d участниками.",

		MsgStatusEmpty:  "Вы пока ни за кем не следите. Начните с команды /add.",
		MsgStatusHeader: "Участники, за которыми вы следите:",

		MsgStatusUnknown:   "%s — отметок пока нет",
		MsgStatusFinished:  "%s — финишировал с результатом %s",
		MsgStatusOnCourse:  "%s — прошёл %s (%v км) в %s",
		MsgStatusAbandoned: "%s — сошёл на КП %s (%v км)",

		MsgCheckinUpdate: "Обновление отметок:\n%s",
		MsgCheckinEntry:  "<b>%s %s</b> — %s (%v км), %s",
		MsgCheckinTime:   "%[2]d %[1]s, %02[3]d:%02[4]d",
		MsgDNF:           "DNF",

		MsgRemovedNotice: "Эти участники больше не числятся в стартовом списке " +
			"и удалены из вашего списка наблюдения:\n%s",

		MsgEventBeforeStart: "До старта осталось %s.",
		MsgEventInAir:       "Мероприятие идёт, до лимита времени осталось %s.",
		MsgEventFinished:    "Мероприятие завершено.",
		MsgRemainder:        "%s, %s, %s",

		MsgAdminPanel:           "Панель администратора.\n\n%s",
		MsgAdminFetchingOn:      "Опрос: включён",
		MsgAdminFetchingOff:     "Опрос: выключен",
		MsgButtonReload:         "Перезагрузить конфигурацию",
		MsgButtonStartFetching:  "Включить опрос",
		MsgButtonStopFetching:   "Выключить опрос",
		MsgAdminReloading:       "Перезагружаю конфигурацию…",
		MsgAdminReloaded:        "Конфигурация перезагружена: контролей — %d, участников — %d.",
		MsgAdminReloadFailed:    "Не удалось перезагрузить конфигурацию, смотрите логи.",
		MsgAdminFetchingStarted: "Опрос включён.",
		MsgAdminFetchingStopped: "Опрос выключен.",

		MsgInternalError:      "Что-то пошло не так на нашей стороне. Код ошибки <code>%s</code>.",
		MsgErrorReportCaption: "Отчёт об ошибке <code>%s</code>",
		MsgSyncHalted:         "Опрос столкнулся с неожиданной ошибкой и был остановлен: %s",

		MsgCmdAddDescription:    "Следить за участником",
		MsgCmdRemoveDescription: "Перестать следить за участником",
		MsgCmdStatusDescription: "Последние известные позиции",
	},
}

var plurals = map[string]map[string][]string{
	"en": {
		PluralDays:    {"%d day", "%d days"},
		PluralHours:   {"%d hour", "%d hours"},
		PluralMinutes: {"%d minute", "%d minutes"},
	},
	"ru": {
		PluralDays:    {"%d день", "%d дня", "%d дней"},
		PluralHours:   {"%d час", "%d часа", "%d часов"},
		PluralMinutes: {"%d минута", "%d минуты", "%d минут"},
	},
}

var months = map[string][]string{
	"en": {
		"January", "February", "March", "April", "May", "June",
		"July", "August", "September", "October", "November", "December",
	},
	"ru": {
		"января", "февраля", "марта", "апреля", "мая", "июня",
		"июля", "августа", "сентября", "октября", "ноября", "декабря",
	},
}
