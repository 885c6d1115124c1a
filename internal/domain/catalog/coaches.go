package catalog

// Coach is a bookable instructor.
type Coach struct {
	ID          int      `json:"id"`
	Name        string   `json:"name"`
	Title       string   `json:"title"`
	Rating      float64  `json:"rating"`
	Reviews     int      `json:"reviews"`
	Specialties []string `json:"specialties"`
	Experience  string   `json:"experience"`
	Price       float64  `json:"price"`
	Description string   `json:"description"`
}

// CoachFields exposes a coach to the engine. Review count is the popularity proxy.
func CoachFields(c Coach) Fields {
	return Fields{
		Name:        c.Name,
		Description: c.Description,
		Tags:        c.Specialties,
		Price:       c.Price,
		Rating:      c.Rating,
		Popularity:  c.Reviews,
	}
}

// NewCoachEngine builds an engine over coaches.
func NewCoachEngine(coaches []Coach, opts ...Option) *Engine[Coach] {
	return NewEngine("coaches", coaches, CoachFields, opts...)
}

// Coaches returns the built-in coach catalog.
func Coaches() []Coach {
	return []Coach{
		{
			ID: 1, Name: "王教练", Title: "太极拳国家一级教练",
			Rating: 4.9, Reviews: 128, Specialties: []string{"太极拳", "八卦掌"},
			Experience: "15年教学经验", Price: 299,
			Description: "国家级太极拳教练，多次获得全国比赛冠军，擅长杨式太极拳和陈式太极拳教学，注重传统功法与现代科学训练相结合。",
		},
		{
			ID: 2, Name: "李教练", Title: "形意拳专业教练",
			Rating: 4.7, Reviews: 85, Specialties: []string{"形意拳", "八极拳"},
			Experience: "12年教学经验", Price: 259,
			Description: "形意拳专业教练，专注于实战技巧教学，课程设计科学合理，适合各年龄段学员，尤其擅长传授实用防身技巧。",
		},
		{
			ID: 3, Name: "张教练", Title: "武术散打教练",
			Rating: 4.8, Reviews: 112, Specialties: []string{"散打", "搏击"},
			Experience: "10年教学经验", Price: 329,
			Description: "中国武术散打专业教练，曾获全国武术散打锦标赛冠军，教学方法灵活多样，重视基本功训练，深受学员喜爱。",
		},
		{
			ID: 4, Name: "陈教练", Title: "咏春拳专业教练",
			Rating: 4.6, Reviews: 76, Specialties: []string{"咏春拳", "南拳"},
			Experience: "8年教学经验", Price: 279,
			Description: "咏春拳专业教练，师承正宗咏春门派，教学经验丰富，擅长一对一针对性指导，注重实战应用和传统技法的结合。",
		},
	}
}
