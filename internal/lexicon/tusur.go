package lexicon

// DefaultFacultyCode is the general-purpose faculty used when answers carry
// no signal.
const DefaultFacultyCode = "ФИТ"

var schoolSubjects = []Subject{
	{"math", "Математика"},
	{"russian", "Русский язык"},
	{"literature", "Литература"},
	{"physics", "Физика"},
	{"chemistry", "Химия"},
	{"biology", "Биология"},
	{"geography", "География"},
	{"history", "История"},
	{"social", "Обществознание"},
	{"english", "Английский язык"},
	{"german", "Немецкий язык"},
	{"french", "Французский язык"},
	{"chinese", "Китайский язык"},
	{"spanish", "Испанский язык"},
	{"informatics", "Информатика"},
	{"technology", "Технология"},
	{"algebra", "Алгебра"},
	{"geometry", "Геометрия"},
	{"astronomy", "Астрономия"},
	{"ecology", "Экология"},
	{"law", "Право"},
	{"economics", "Экономика"},
	{"mhc", "МХК"},
	{"art", "ИЗО"},
	{"music", "Музыка"},
	{"drafting", "Черчение"},
	{"pe", "Физкультура"},
	{"safety", "ОБЖ"},
}

var stateExams = []Exam{
	{"russian", "Русский язык"},
	{"math_basic", "Математика (базовая)"},
	{"math_advanced", "Математика (профильная)"},
	{"physics", "Физика"},
	{"informatics", "Информатика"},
	{"social", "Обществознание"},
	{"chemistry", "Химия"},
	{"biology", "Биология"},
	{"history", "История"},
	{"literature", "Литература"},
	{"geography", "География"},
	{"english", "Английский язык"},
}

var tusurFaculties = []Faculty{
	{
		Code:       "РТФ",
		Name:       "Радиотехнический факультет",
		Summary:    "Твой интерес к физике и технике отлично подходит для радиотехнического направления",
		Liked:      []string{"physics", "math", "informatics", "algebra", "geometry"},
		Disliked:   []string{"literature", "biology", "history", "social", "mhc"},
		Keywords:   []string{"радиотехника", "электроника", "сигналы", "антенны", "телекоммуникации", "схемотехника", "радио", "связь", "частоты", "волны"},
		Programmes: []string{"Радиотехника", "Электроника и наноэлектроника", "Телекоммуникации", "Радиосвязь"},
	},
	{
		Code:       "ФЭТ",
		Name:       "Факультет электронной техники",
		Summary:    "Интерес к электронике и автоматике делает ФЭТ отличным выбором для тебя",
		Liked:      []string{"physics", "math", "informatics", "technology", "algebra"},
		Disliked:   []string{"literature", "history", "social", "mhc", "music"},
		Keywords:   []string{"электроника", "микросхемы", "автоматика", "робототехника", "микроконтроллеры", "программирование", "схемы", "процессоры", "датчики", "устройства"},
		Programmes: []string{"Электронная техника", "Автоматика и управление", "Робототехника", "Микроэлектроника"},
	},
	{
		Code:       "ФСУ",
		Name:       "Факультет систем управления",
		Summary:    "Твои склонности к управлению и организации процессов подходят для ФСУ",
		Liked:      []string{"math", "informatics", "physics", "social", "economics"},
		Disliked:   []string{"biology", "chemistry", "literature", "mhc", "art"},
		Keywords:   []string{"управление", "системы", "автоматизация", "менеджмент", "бизнес", "процессы", "оптимизация", "аналитика", "планирование", "контроль"},
		Programmes: []string{"Управление в технических системах", "Бизнес-информатика", "Менеджмент", "Системный анализ"},
	},
	{
		Code:       "ГФ",
		Name:       "Гуманитарный факультет",
		Summary:    "Твой интерес к гуманитарным наукам и общению с людьми подходит для ГФ",
		Liked:      []string{"literature", "history", "social", "russian", "english", "mhc"},
		Disliked:   []string{"physics", "math", "chemistry", "informatics", "algebra"},
		Keywords:   []string{"психология", "социология", "лингвистика", "культура", "общество", "коммуникации", "языки", "философия", "искусство", "гуманитарные"},
		Programmes: []string{"Лингвистика", "Психология", "Социология", "Культурология"},
	},
	{
		Code:       "ФИТ",
		Name:       "Факультет инновационных технологий",
		Summary:    "Твои интересы к современным технологиям и программированию идеально подходят для ФИТ",
		Liked:      []string{"informatics", "math", "physics", "algebra", "geometry"},
		Disliked:   []string{"biology", "chemistry", "literature", "history", "mhc"},
		Keywords:   []string{"программирование", "искусственный интеллект", "алгоритмы", "разработка", "it", "инновации", "технологии", "софт", "данные", "цифровые"},
		Programmes: []string{"Программная инженерия", "Информационные системы", "Искусственный интеллект", "Веб-разработка"},
	},
}

var keywordVariants = map[string][]string{
	"программирование": {"кодинг", "разработка программ", "написание кода"},
	"электроника":      {"электронные устройства", "микроэлектроника"},
	"управление":       {"менеджмент", "руководство", "администрирование"},
	"психология":       {"изучение поведения", "работа с людьми"},
	"радиотехника":     {"радиосвязь", "беспроводные технологии"},
}

// GenericExams are exams commonly taken regardless of profile.
var GenericExams = []string{"russian", "math", "physics", "informatics", "social"}

// Default returns the built-in TUSUR lexicon.
func Default() *Lexicon {
	l, err := New(schoolSubjects, stateExams, tusurFaculties, DefaultFacultyCode, keywordVariants)
	if err != nil {
		panic(err)
	}
	return l
}
