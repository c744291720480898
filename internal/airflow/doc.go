// Package airflow содержит клиента Airflow REST API (v1).
//
// Клиент читает историю DAG runs кластера постранично, повторяет
// временные ошибки (429, 5xx) с экспоненциальной задержкой и
// ограничивает частоту запросов к каждому кластеру.
package airflow
