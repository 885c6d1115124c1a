package catalog

// Course is an enrollable course.
type Course struct {
	ID            int      `json:"id"`
	Title         string   `json:"title"`
	Instructor    string   `json:"instructor"`
	Level         string   `json:"level"`
	Rating        float64  `json:"rating"`
	Reviews       int      `json:"reviews"`
	Students      int      `json:"students"`
	Price         float64  `json:"price"`
	OriginalPrice float64  `json:"original_price"`
	Duration      string   `json:"duration"`
	Categories    []string `json:"categories"`
	Labels        []string `json:"labels"`
	Featured      bool     `json:"featured"`
	Description   string   `json:"description"`
}

// Course levels.
const (
	LevelBeginner     = "入门"
	LevelIntermediate = "中级"
	LevelAdvanced     = "高级"
	LevelAny          = "不限"
)

// CourseFields exposes a course to the engine. Categories are the filterable
// tags and enrolled students are the popularity proxy.
func CourseFields(c Course) Fields {
	return Fields{
		Name:        c.Title,
		Description: c.Description,
		Tags:        c.Categories,
		Price:       c.Price,
		Rating:      c.Rating,
		Popularity:  c.Students,
		Level:       c.Level,
	}
}

// NewCourseEngine builds an engine over courses.
func NewCourseEngine(courses []Course, opts ...Option) *Engine[Course] {
	return NewEngine("courses", courses, CourseFields, opts...)
}

// Courses returns the built-in course catalog.
func Courses() []Course {
	return []Course{
		{
			ID: 1, Title: "太极拳入门到精通", Instructor: "王教练", Level: LevelBeginner,
			Rating: 4.9, Reviews: 128, Students: 1256, Price: 299, OriginalPrice: 599, Duration: "25课时",
			Categories: []string{"太极拳", "传统武术"}, Labels: []string{"基础入门", "系统课程"}, Featured: true,
			Description: "从零基础开始学习正宗太极拳，掌握基本姿势、呼吸方法、太极理念和完整套路，提升身体健康和心灵平衡。",
		},
		{
			ID: 2, Title: "形意拳实战技巧", Instructor: "李教练", Level: LevelIntermediate,
			Rating: 4.7, Reviews: 85, Students: 753, Price: 359, OriginalPrice: 499, Duration: "18课时",
			Categories: []string{"形意拳", "实战技巧"}, Labels: []string{"中级进阶", "实战应用"},
			Description: "专注形意拳实战应用技巧，融合传统功法与现代搏击理念，提升实战能力和防身本领。",
		},
		{
			ID: 3, Title: "八卦掌基础训练", Instructor: "张教练", Level: LevelBeginner,
			Rating: 4.8, Reviews: 112, Students: 986, Price: 329, OriginalPrice: 459, Duration: "20课时",
			Categories: []string{"八卦掌", "传统武术"}, Labels: []string{"基础入门", "身体协调"},
			Description: "系统学习八卦掌基本功法，掌握掌型、步法、身法、转换技巧，提升身体协调性和灵活度。",
		},
		{
			ID: 4, Title: "咏春拳进阶课程", Instructor: "陈教练", Level: LevelAdvanced,
			Rating: 4.9, Reviews: 95, Students: 672, Price: 399, OriginalPrice: 599, Duration: "22课时",
			Categories: []string{"咏春拳", "南拳"}, Labels: []string{"高级进阶", "实战应用"}, Featured: true,
			Description: "专业咏春拳进阶教学，深入学习小念头、寻桥、标指等高级套路和木人桩法，提升实战技巧。",
		},
		{
			ID: 5, Title: "散打基础训练", Instructor: "赵教练", Level: LevelBeginner,
			Rating: 4.6, Reviews: 76, Students: 845, Price: 279, OriginalPrice: 399, Duration: "15课时",
			Categories: []string{"散打", "搏击"}, Labels: []string{"基础入门", "实战应用"},
			Description: "系统学习散打基本功法，包括站姿、步法、拳法、腿法和防守技巧，适合零基础学员入门。",
		},
		{
			ID: 6, Title: "武术体能训练专项课", Instructor: "刘教练", Level: LevelAny,
			Rating: 4.7, Reviews: 64, Students: 723, Price: 259, OriginalPrice: 359, Duration: "12课时",
			Categories: []string{"体能训练", "基础强化"}, Labels: []string{"体能提升", "基础训练"},
			Description: "专注武术体能训练，科学提升力量、灵活性、爆发力和耐力，为各类武术学习打下坚实基础。",
		},
	}
}
