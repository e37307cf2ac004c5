package domain

// DefaultCategories returns a fresh copy of the built-in taxonomy used to
// bootstrap an empty category collection.
func DefaultCategories() []Category {
	out := make([]Category, len(defaultCategories))
	for i, c := range defaultCategories {
		out[i] = c.Clone()
	}
	return out
}

var defaultCategories = []Category{
	{
		ID:          "planning-analysis",
		Name:        "Planning & Analysis",
		Color:       "#8B7EC8",
		Description: "Project planning and requirements analysis",
		Subcategories: []Subcategory{
			{Name: "Requirements Gathering", Tasks: []string{
				"Stakeholder interviews",
				"Business requirements documentation",
				"Functional requirements specification",
				"Non-functional requirements",
				"User story creation",
				"Acceptance criteria definition",
			}},
			{Name: "Project Planning", Tasks: []string{
				"Project scope definition",
				"Work breakdown structure",
				"Timeline creation and milestones",
				"Resource allocation planning",
				"Risk assessment and mitigation",
				"Budget estimation and approval",
			}},
		},
	},
	{
		ID:          "design-architecture",
		Name:        "Design & Architecture",
		Color:       "#B5A9D6",
		Description: "System design and user experience planning",
		Subcategories: []Subcategory{
			{Name: "System Design", Tasks: []string{
				"System architecture design",
				"Database schema design",
				"API design and documentation",
				"Security architecture planning",
				"Performance optimization strategy",
				"Integration points mapping",
			}},
			{Name: "UI/UX Design", Tasks: []string{
				"User experience research",
				"Wireframe and mockup creation",
				"Interactive prototype development",
				"Design system creation",
				"Usability testing and feedback",
				"Responsive design planning",
			}},
		},
	},
	{
		ID:          "development",
		Name:        "Development",
		Color:       "#A8E6CF",
		Description: "Software development and implementation",
		Subcategories: []Subcategory{
			{Name: "Frontend Development", Tasks: []string{
				"Component development and testing",
				"State management implementation",
				"Responsive design implementation",
				"Cross-browser compatibility testing",
				"Performance optimization",
				"Accessibility implementation",
			}},
			{Name: "Backend Development", Tasks: []string{
				"API development and testing",
				"Database implementation",
				"Authentication and authorization",
				"Data validation and sanitization",
				"Error handling and logging",
				"Third-party integrations",
			}},
		},
	},
	{
		ID:          "testing-qa",
		Name:        "Testing & Quality Assurance",
		Color:       "#FFD3A5",
		Description: "Quality assurance and testing processes",
		Subcategories: []Subcategory{
			{Name: "Testing", Tasks: []string{
				"Unit testing implementation",
				"Integration testing",
				"System and end-to-end testing",
				"User acceptance testing",
				"Performance and load testing",
				"Security testing and validation",
			}},
			{Name: "Quality Assurance", Tasks: []string{
				"Code review and standards",
				"Documentation review",
				"Automated testing setup",
				"Bug tracking and resolution",
				"Quality metrics monitoring",
				"Release readiness assessment",
			}},
		},
	},
	{
		ID:          "deployment-maintenance",
		Name:        "Deployment & Maintenance",
		Color:       "#FFAAA5",
		Description: "Deployment, monitoring, and ongoing maintenance",
		Subcategories: []Subcategory{
			{Name: "Deployment", Tasks: []string{
				"Environment setup and configuration",
				"CI/CD pipeline configuration",
				"Production deployment and rollback",
				"Monitoring and alerting setup",
				"Backup and disaster recovery",
				"Performance monitoring setup",
			}},
			{Name: "Maintenance", Tasks: []string{
				"Regular system updates",
				"Security patches and updates",
				"Performance monitoring and optimization",
				"User support and issue resolution",
				"Documentation updates and maintenance",
				"System health monitoring",
			}},
		},
	},
}
