package dialogue

import (
	"fmt"
	"html"
	"strings"

	"github.com/tusur-bots/faculty-advisor/internal/applicant"
	"github.com/tusur-bots/faculty-advisor/internal/storage"
)

// Main menu labels.
const (
	MenuPick         = "🎓 Подобрать факультет"
	MenuApplications = "📝 Мои заявки"
	MenuProfile      = "👤 Профиль"
	MenuHelp         = "ℹ️ Помощь"
)

// MenuLayout is the main menu, row by row.
var MenuLayout = [][]string{
	{MenuPick},
	{MenuApplications, MenuProfile},
	{MenuHelp},
}

// Callback data kinds. Arguments follow a colon.
const (
	cbNoop           = "noop"
	cbMenu           = "menu"
	cbToggle         = "subj"
	cbDone           = "done"
	cbFaculty        = "fac"
	cbKeepContacts   = "keep"
	cbChangeContacts = "contacts"
	cbEditSubjects   = "edit"
	cbSubmit         = "submit"
)

const (
	textChooseAction = "Выберите действие:"
	textCancelled    = "Действие отменено. Возвращаемся в главное меню."
	textBackToMenu   = "Возвращаемся в главное меню."
	textStale        = "Этот выбор неактуален сейчас."
	textUseButtons   = "Пожалуйста, воспользуйтесь кнопками под сообщением."
	textNoProfile    = "Профиль не найден. Сначала завершите регистрацию."
	textNoUser       = "Сначала завершите регистрацию!"
	textNoApps       = "Пока нет заявок."
	textStoreError   = "Не удалось получить данные. Попробуйте позже."

	textHelp = "🤖 Справка по использованию бота:\n\n" +
		MenuPick + " - пройти анкету для получения рекомендации\n" +
		MenuApplications + " - посмотреть поданные заявки\n" +
		MenuProfile + " - информация о вашем аккаунте\n" +
		MenuHelp + " - эта справка\n\n" +
		"/find &lt;запрос&gt; - найти факультет по ключевым словам\n" +
		"/cancel - отменить текущее действие"

	textInterestsPrompt = "Хорошо! 📚\n\n" +
		"<b>4/5: Что тебе интересно?</b>\n\n" +
		"Расскажи подробнее, <b>что тебе интересно</b>?\n" +
		"Например: программирование, создание сайтов, работа с техникой, дизайн, научные исследования...\n\n" +
		"Опиши подробно своими словами:"

	textDislikesPrompt = "Замечательно! ✨\n\n" +
		"<b>5/5: Что тебе точно неинтересно?</b>\n\n" +
		"Это поможет исключить неподходящие направления.\n\n" +
		"Опиши подробно своими словами:"

	textPhonePrompt    = "Для оформления заявки введите ваш номер телефона (например, +79130000000):"
	textNewPhonePrompt = "Введите новый номер телефона (например, +79130000000):"
	textEmailPrompt    = "Пожалуйста, введите ваш E-mail:"

	textBadPhone = "Некорректный номер телефона!\n" +
		"Телефон должен содержать 11 цифр.\n" +
		"Пример: <b>+79131234567</b> или <b>89131234567</b>."

	textBadEmail = "Некорректный E-mail!\n" +
		"E-mail должен начинаться с английской буквы и содержать только латинские буквы и цифры, " +
		"один символ @ и домен после него. Пример: <b>ivan123@example.com</b>"

	textFindUsage   = "Укажите запрос, например: <code>/find программирование</code>"
	textFindNothing = "Ничего не найдено. Попробуйте другие слова."
	textFindOff     = "Поиск по факультетам сейчас недоступен."
)

func welcomeText(name string) string {
	if name == "" {
		name = "абитуриент"
	}
	return fmt.Sprintf("Привет, %s! 👋\n\n", html.EscapeString(name)) +
		"Добро пожаловать в бот подбора факультета ТУСУР! 🎓\n\n" +
		"Я помогу тебе:\n" +
		"🔹 Подобрать подходящий факультет на основе твоих интересов\n" +
		"🔹 Подать заявку на поступление\n" +
		"🔹 Отслеживать статус заявок\n\n" +
		"Выбери действие в меню ниже:"
}

// listPrompt is the header of a selection step.
func listPrompt(list string, need int) string {
	var b strings.Builder
	switch list {
	case listLiked:
		b.WriteString("Давай подберем тебе подходящий факультет ТУСУР! 🎯\n\n")
		b.WriteString("<b>1/5: Любимые предметы в школе</b>\n\n")
		b.WriteString("Выбери предметы, которые тебе <b>нравятся больше всего</b>.\n")
	case listDisliked:
		b.WriteString("Отлично! 👍\n\n")
		b.WriteString("<b>2/5: Нелюбимые предметы в школе</b>\n\n")
		b.WriteString("Теперь выбери предметы, которые тебе <b>не очень нравятся</b>.\n")
	case listExams:
		b.WriteString("Понятно! 📝\n\n")
		b.WriteString("<b>3/5: Планируемые экзамены</b>\n\n")
		b.WriteString("Какие экзамены ты планируешь сдавать или уже сдал?\n")
	}
	b.WriteString("Можно несколько.")
	if need > 0 {
		fmt.Fprintf(&b, "\n\n⚠️ <b>Минимум для выбора: %d</b>", need)
	}
	return b.String()
}

type option struct {
	code string
	name string
}

func (d *Dialogue) options(list string) []option {
	if list == listExams {
		exams := d.lex.Exams()
		opts := make([]option, len(exams))
		for i, e := range exams {
			opts[i] = option{e.Code, e.Name}
		}
		return opts
	}
	subjects := d.lex.Subjects()
	opts := make([]option, len(subjects))
	for i, s := range subjects {
		opts[i] = option{s.Code, s.Name}
	}
	return opts
}

func (d *Dialogue) minimum(list string) int {
	switch list {
	case listLiked:
		return d.cfg.MinLiked
	case listDisliked:
		return d.cfg.MinDisliked
	case listExams:
		return d.cfg.MinExams
	}
	return 0
}

// selectionKeyboard lays options out two per row, marks selected ones and
// appends the counter and control rows.
func (d *Dialogue) selectionKeyboard(list string, selected []string) [][]Button {
	opts := d.options(list)
	chosen := make(map[string]bool, len(selected))
	for _, c := range selected {
		chosen[c] = true
	}

	rows := make([][]Button, 0, len(opts)/2+4)
	for i := 0; i < len(opts); i += 2 {
		row := make([]Button, 0, 2)
		for _, o := range opts[i:min(i+2, len(opts))] {
			label := o.name
			if chosen[o.code] {
				label = "✅ " + label
			}
			row = append(row, Button{Text: label, Data: cbToggle + ":" + list + ":" + o.code})
		}
		rows = append(rows, row)
	}

	need := d.minimum(list)
	counter := fmt.Sprintf("Выбрано: %d", len(selected))
	if len(selected) < need {
		counter += fmt.Sprintf(" (мин. %d)", need)
	}
	rows = append(rows, []Button{{Text: counter, Data: cbNoop}})

	if len(selected) >= need && len(selected) > 0 {
		rows = append(rows, []Button{{Text: "➡️ Далее", Data: cbDone + ":" + list}})
	} else {
		rows = append(rows, []Button{{Text: fmt.Sprintf("❌ Выберите хотя бы %d", max(need, 1)), Data: cbNoop}})
	}
	rows = append(rows, menuRow())
	return rows
}

func menuRow() []Button {
	return []Button{{Text: "🏠 Главное меню", Data: cbMenu}}
}

// facultyKeyboard lists all faculties, the recommended one first.
func (d *Dialogue) facultyKeyboard(recommended string) [][]Button {
	rows := make([][]Button, 0, 7)
	if f, ok := d.lex.Faculty(recommended); ok {
		rows = append(rows, []Button{{Text: "⭐ " + f.Code + " - " + f.Name, Data: cbFaculty + ":" + f.Code}})
	}
	for _, f := range d.lex.Faculties() {
		if f.Code == recommended {
			continue
		}
		rows = append(rows, []Button{{Text: f.Code + " - " + f.Name, Data: cbFaculty + ":" + f.Code}})
	}
	return append(rows, menuRow())
}

func recommendationText(rec applicant.Recommendation) string {
	var b strings.Builder
	b.WriteString("🧑‍💻 <b>Рекомендованный факультет:</b>\n")
	fmt.Fprintf(&b, "<b>%s - %s</b>\n", html.EscapeString(rec.FacultyCode), html.EscapeString(rec.FacultyName))
	fmt.Fprintf(&b, "<i>%s</i>\n", html.EscapeString(rec.Reason))
	if rec.Directions != "" {
		fmt.Fprintf(&b, "\n<b>Направления подготовки:</b>\n%s\n", html.EscapeString(rec.Directions))
	}
	b.WriteString("\nВы также можете выбрать другой факультет, если пожелаете:")
	return b.String()
}

func reuseContactsText(faculty, phone, email string) string {
	return fmt.Sprintf("<b>Факультет для заявки:</b> %s\n\n", html.EscapeString(faculty)) +
		"<b>Ваши контакты:</b>\n" +
		fmt.Sprintf("Телефон: %s\nE-mail: %s\n\n", html.EscapeString(phone), html.EscapeString(email)) +
		"Если все верно, жмите <b>Все актуально</b>.\n" +
		"Если хотите изменить, нажмите <b>Изменить контактные данные</b>."
}

func reuseContactsKeyboard() [][]Button {
	return [][]Button{
		{{Text: "✅ Все актуально", Data: cbKeepContacts}},
		{{Text: "✏️ Изменить контактные данные", Data: cbChangeContacts}},
		menuRow(),
	}
}

func confirmText(faculty, phone, email string) string {
	return "<b>Проверьте ваши данные:</b>\n\n" +
		fmt.Sprintf("Факультет: <b>%s</b>\n", html.EscapeString(faculty)) +
		fmt.Sprintf("Телефон: <b>%s</b>\n", html.EscapeString(phone)) +
		fmt.Sprintf("E-mail: <b>%s</b>\n\n", html.EscapeString(email)) +
		"Все верно? Если да, отправьте заявку 👇"
}

func confirmKeyboard() [][]Button {
	return [][]Button{
		{{Text: "📋 Подтвердить и отправить заявку", Data: cbSubmit}},
		{{Text: "✏️ Изменить выбранные предметы", Data: cbEditSubjects}},
		{{Text: "✏️ Изменить контактные данные", Data: cbChangeContacts}},
		menuRow(),
	}
}

func (d *Dialogue) applicationsText(apps []storage.Application) string {
	var b strings.Builder
	b.WriteString("📑 Ваши заявки:\n\n")
	for _, app := range apps {
		fmt.Fprintf(&b, "• %s (%s), %s\n",
			html.EscapeString(d.facultyName(app.FacultyCode)),
			html.EscapeString(app.Status),
			app.CreatedAt.Format("02.01.2006"))
	}
	return b.String()
}

func (d *Dialogue) profileText(u storage.User, apps []storage.Application) string {
	names := make([]string, 0, len(apps))
	for _, app := range apps {
		names = append(names, d.facultyName(app.FacultyCode))
	}
	return "👤 Ваш профиль:\n\n" +
		fmt.Sprintf("Имя: %s\n", html.EscapeString(dash(u.FirstName))) +
		fmt.Sprintf("Фамилия: %s\n", html.EscapeString(dash(u.LastName))) +
		fmt.Sprintf("Телефон: %s\n", html.EscapeString(dash(u.Phone))) +
		fmt.Sprintf("E-mail: %s\n", html.EscapeString(dash(u.Email))) +
		fmt.Sprintf("Роль: %s\n", html.EscapeString(dash(u.Role))) +
		fmt.Sprintf("Факультет(ы): %s", html.EscapeString(dash(strings.Join(names, ", "))))
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func (d *Dialogue) facultyName(code string) string {
	if f, ok := d.lex.Faculty(code); ok {
		return f.Name
	}
	return code
}

// truncate cuts s to n runes.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
