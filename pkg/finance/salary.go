package finance

import "github.com/iwvelando/comp-calculator/pkg/mathutil"

// Salary returns the base salary for 0-based year y. Growth compounds
// inclusively: year y already reflects Growth[y].SalaryGrowth, so year 0 is
// base × (1 + Growth[0].SalaryGrowth/100).
func Salary(pkg Package, y int) (float64, error) {
	if err := checkIndex("growth", y, len(pkg.Growth)); err != nil {
		return 0, err
	}
	salary := pkg.Base
	for i := 0; i <= y; i++ {
		salary *= 1 + mathutil.PercentToDecimal(pkg.Growth[i].SalaryGrowth)
	}
	return salary, nil
}

// Bonus returns the bonus for year y, computed on that year's salary.
func Bonus(pkg Package, y int) (float64, error) {
	salary, err := Salary(pkg, y)
	if err != nil {
		return 0, err
	}
	return mathutil.ApplyPercentage(salary, pkg.Growth[y].BonusPercentage), nil
}
