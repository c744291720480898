// Package storage читает спецификации workflow из внешнего хранилища.
//
// Источники:
//   - DirSource — каталог с документами (*.yaml, *.yml, *.json)
//   - GitSource — git репозиторий, клонируемый в локальный кэш
//
// ParseSpec разбирает документ в domain.WorkflowSpec и считает checksum.
package storage
