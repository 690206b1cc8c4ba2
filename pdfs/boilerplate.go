package pdfs

// Brand is the company identity printed in headers, footers and the contact box
type Brand struct {
	Name    string `json:"name"`
	Tagline string `json:"tagline"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
	Address string `json:"address"`
	Website string `json:"website"`
}

var DefaultBrand = Brand{
	Name:    "ECO CONSTRUCTION GROUP",
	Tagline: "Engineering & Construction Excellence",
	Phone:   "+998 (71) 256-26-00",
	Email:   "ecgtashkent@gmail.com",
	Address: "Tashkent, Mirabadsky district, Shahrisabz str. 36",
	Website: "www.ecoconstructiongroup.uz",
}

type Phase struct {
	Name       string
	Duration   string
	Activities []string
}

type Partner struct {
	Name      string
	Country   string
	Specialty string
}

var constructionPhases = []Phase{
	{
		Name:     "Phase 1: Site Assessment & Design",
		Duration: "2-4 weeks",
		Activities: []string{
			"Geological and environmental assessment",
			"Water quality and flow rate analysis",
			"Capacity requirements calculation",
			"Technology selection and system design",
			"Regulatory compliance planning",
		},
	},
	{
		Name:     "Phase 2: Construction & Installation",
		Duration: "3-20 months",
		Activities: []string{
			"Site preparation and civil works",
			"HDPE container installation",
			"European equipment integration",
			"Piping and electrical systems",
			"Control system programming",
			"Quality assurance testing",
		},
	},
	{
		Name:     "Phase 3: Commissioning & Training",
		Duration: "2-6 weeks",
		Activities: []string{
			"System performance testing",
			"Process optimization",
			"Operator training programs",
			"Documentation handover",
			"Warranty activation",
		},
	},
}

var technologyPartners = []Partner{
	{Name: "REKO", Country: "Germany", Specialty: "Advanced filtration systems and water treatment technology"},
	{Name: "TORAY", Country: "Japan", Specialty: "World-leading membrane filtration and reverse osmosis technology"},
	{Name: "Pieralisi", Country: "Italy", Specialty: "Industrial separation equipment and centrifugal technology"},
	{Name: "BÖRGER", Country: "Germany", Specialty: "Rotary lobe pumps and advanced pumping solutions"},
	{Name: "WILO", Country: "Germany", Specialty: "High-efficiency pumps and intelligent pumping systems"},
}

var performanceMetrics = []string{
	"25+ successful projects completed across Uzbekistan",
	"98-99% treatment efficiency consistently achieved",
	"8 years of specialized water treatment experience",
	"Capacities from 500 m³/day to 35,000 m³/day proven",
	"99.2% on-time project delivery rate",
	"100% client satisfaction record",
}

const hdpeIntro = "Revolutionary modular treatment systems built with High-Density Polyethylene containers " +
	"for rapid deployment, excellent chemical resistance, and long-term durability."

var hdpeFeatures = []string{
	"Modular containerized design for flexible installation",
	"Chemical-resistant HDPE construction",
	"Rapid 3-6 month deployment timeline",
	"Scalable capacity expansion capabilities",
	"Weather-resistant operation in all climates",
	"Minimal site preparation requirements",
	"25+ year operational lifespan",
	"40% energy savings compared to traditional systems",
}

const contactIntro = "Ready to discuss your water treatment facility requirements? " +
	"Our engineering team is ready to provide:"

var contactServices = []string{
	"Free site assessment and consultation",
	"Customized capacity analysis and system design",
	"European technology recommendations",
	"Detailed cost estimates and project timelines",
	"Reference project portfolios and case studies",
}

const companyProfileText = "ECO CONSTRUCTION GROUP is a leading engineering and construction company " +
	"specializing in water treatment facility design, construction, and modernization across Uzbekistan."

var (
	colorBrand      = RGB{45, 85, 153}
	colorWhite      = RGB{255, 255, 255}
	colorBlack      = RGB{0, 0, 0}
	colorFooter     = RGB{128, 128, 128}
	colorMuted      = RGB{80, 80, 80}
	colorTableHead  = RGB{240, 240, 240}
	colorRowShade   = RGB{250, 250, 250}
	colorPartnerBox = RGB{245, 250, 255}
	colorMetricsBox = RGB{240, 255, 240}
	colorMetricsRim = RGB{34, 197, 94}
	colorTick       = RGB{0, 100, 0}
)
